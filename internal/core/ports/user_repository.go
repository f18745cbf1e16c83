package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts a new user. A duplicate username or email returns domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByUsername is used to resolve the author filter of article listings.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByIDs returns the users that exist, keyed by id. Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// Update replaces the mutable fields of an existing user.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
}

// ListUsersFilter carries the admin user listing parameters.
type ListUsersFilter struct {
	Role  *domain.Role // optional
	Page  int
	Limit int
}
