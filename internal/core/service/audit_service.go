package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

type auditRecorder struct {
	sink ports.AuditSink
	log  zerolog.Logger
	now  func() time.Time
}

// NewAuditRecorder returns an AuditRecorder that stamps entries and hands them
// to sink. Delivery is at-most-once: a rejected entry is logged and dropped.
func NewAuditRecorder(sink ports.AuditSink, log zerolog.Logger) ports.AuditRecorder {
	return &auditRecorder{sink: sink, log: log, now: time.Now}
}

func (r *auditRecorder) Record(_ context.Context, actorID, resourceID string, details domain.AuditDetails, meta domain.RequestMeta) {
	if details == nil {
		return
	}
	entry := domain.NewAuditEntry(actorID, resourceID, details, meta, r.now())
	entry.ID = uuid.NewString()

	if !r.sink.Enqueue(entry) {
		r.log.Error().
			Str("audit_id", entry.ID).
			Str("action", string(entry.Action)).
			Str("resource_id", resourceID).
			Msg("audit queue full, entry dropped")
	}
}
