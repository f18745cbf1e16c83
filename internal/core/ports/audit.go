package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// AuditRecorder is called by handlers after a state-changing operation has
// committed. It never fails from the caller's point of view.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, resourceID string, details domain.AuditDetails, meta domain.RequestMeta)
}

// AuditSink accepts entries for asynchronous persistence. Enqueue must not
// block; it reports false when the entry was dropped.
type AuditSink interface {
	Enqueue(entry *domain.AuditEntry) bool
}
