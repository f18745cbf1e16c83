package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleReader, RoleWriter, RoleAdmin}

// ParseRole converts s to a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleReader:
		return RoleReader, nil
	case RoleWriter:
		return RoleWriter, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", NewValidationError("role", fmt.Sprintf("must be one of: %s, %s, %s", RoleReader, RoleWriter, RoleAdmin))
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
	PasswordMinLen = 6
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername checks length and charset of a username.
func ValidateUsername(username string) error {
	n := len([]rune(username))
	if n < UsernameMinLen || n > UsernameMaxLen {
		return NewValidationError("username", fmt.Sprintf("must be between %d and %d characters", UsernameMinLen, UsernameMaxLen))
	}
	if !usernamePattern.MatchString(username) {
		return NewValidationError("username", "can only contain letters, numbers, and underscores")
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLen {
		return NewValidationError("password", fmt.Sprintf("must be at least %d characters", PasswordMinLen))
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries the optional fields an admin may change on a user.
type UserPatch struct {
	Username *string
	Email    *string
	Role     *Role
	Password *string
}

// Fields returns the names of the fields present in the patch.
func (p UserPatch) Fields() []string {
	var out []string
	if p.Username != nil {
		out = append(out, "username")
	}
	if p.Email != nil {
		out = append(out, "email")
	}
	if p.Role != nil {
		out = append(out, "role")
	}
	if p.Password != nil {
		out = append(out, "password")
	}
	return out
}
