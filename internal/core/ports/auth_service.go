package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string // optional: reader (default) or writer
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
}
