// @title                       Publishing API
// @version                     1.0
// @description                 Role-based publishing API for technical articles.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import "github.com/techpress/publishing-api/cmd/publishing-api/commands"

func main() {
	commands.Execute()
}
