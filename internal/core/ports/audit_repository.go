package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// AuditRepository persists audit entries. Entries are never updated.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, q domain.AuditQuery) ([]*domain.AuditEntry, int64, error)
}
