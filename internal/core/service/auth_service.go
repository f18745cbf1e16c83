package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// AuthService implements registration, login and token issuance.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	role, err := policy.SelfRegisterRole(in.Role)
	if err != nil {
		return nil, err
	}
	user, err := s.newUser(in.Username, in.Email, in.Password, role)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login authenticates by email. Unknown emails and wrong passwords are
// reported identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// Me returns the account behind p. A token for a deleted account is unauthorized.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// SeedAdmin makes sure an admin account exists for email. An existing account
// with that email is promoted to admin and gets the given password. The bool
// reports whether a new account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case err == nil:
		if err := domain.ValidatePassword(password); err != nil {
			return nil, false, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, err
		}
		existing.Role = domain.RoleAdmin
		existing.PasswordHash = string(hash)
		existing.UpdatedAt = s.now().UTC()
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return nil, false, fmt.Errorf("seed admin: %w", err)
		}
		return updated, false, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, false, fmt.Errorf("seed admin: %w", err)
	}

	user, err := s.newUser(username, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("seed admin: %w", err)
	}
	return created, true, nil
}

func (s *AuthService) newUser(username, email, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be a valid email")
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
