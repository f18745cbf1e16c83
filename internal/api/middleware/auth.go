package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
)

const principalKey = "principal"

var (
	errMissingHeader = errors.New("missing authorization header")
	errInvalidHeader = errors.New("invalid authorization header")
	errInvalidToken  = errors.New("invalid token")
	errUserGone      = errors.New("user no longer exists")
)

// UserLookup loads the account behind a token subject.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the JWT, reloads the account it names and injects the
// resulting principal into context. Requests without a valid token, or whose
// account was deleted, are rejected with 401.
func Auth(jwtSecret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, err := subjectFromHeader(c.Request().Header.Get("Authorization"), jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			p, err := loadPrincipal(c.Request().Context(), users, sub)
			if errors.Is(err, domain.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, errUserGone.Error())
			}
			if err != nil {
				return err
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// OptionalAuth resolves the principal when a valid token is present. A missing,
// malformed or expired token, or one naming a deleted account, leaves the
// request anonymous.
func OptionalAuth(jwtSecret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := domain.Anonymous()
			if sub, err := subjectFromHeader(c.Request().Header.Get("Authorization"), jwtSecret); err == nil {
				loaded, err := loadPrincipal(c.Request().Context(), users, sub)
				switch {
				case err == nil:
					p = loaded
				case !errors.Is(err, domain.ErrNotFound):
					return err
				}
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal set by Auth or OptionalAuth, or the
// anonymous principal when neither ran.
func PrincipalFrom(c echo.Context) domain.Principal {
	p, ok := c.Get(principalKey).(domain.Principal)
	if !ok {
		return domain.Anonymous()
	}
	return p
}

// SetPrincipal stores p on the context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// loadPrincipal builds the principal from the stored account so role changes
// and deletions take effect before the token expires.
func loadPrincipal(ctx context.Context, users UserLookup, id string) (domain.Principal, error) {
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return domain.Anonymous(), err
	}
	return domain.NewPrincipal(u.ID, u.Username, u.Role), nil
}

func subjectFromHeader(authHeader, jwtSecret string) (string, error) {
	if authHeader == "" {
		return "", errMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errInvalidHeader
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	if _, err := domain.ParseRole(rawRole); err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}
