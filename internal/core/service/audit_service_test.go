package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/techpress/publishing-api/internal/core/domain"
)

type stubSink struct {
	accept  bool
	entries []*domain.AuditEntry
}

func (s *stubSink) Enqueue(e *domain.AuditEntry) bool {
	if !s.accept {
		return false
	}
	s.entries = append(s.entries, e)
	return true
}

func TestAuditRecorder_Record(t *testing.T) {
	sink := &stubSink{accept: true}
	rec := NewAuditRecorder(sink, zerolog.Nop()).(*auditRecorder)
	rec.now = fixedClock

	rec.Record(context.Background(), "w1", "a1",
		domain.ArticleCreatedDetails{Title: "Intro to Widgets", Status: domain.StatusDraft},
		domain.RequestMeta{Method: "POST", Path: "/api/articles", IPAddress: "10.0.0.1", UserAgent: "curl"})

	if len(sink.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", e.ID)
	}
	if e.Action != domain.ActionCreateArticle || e.ResourceType != domain.ResourceArticle {
		t.Fatalf("unexpected action/resource %s/%s", e.Action, e.ResourceType)
	}
	if e.UserID == nil || *e.UserID != "w1" || e.ResourceID != "a1" {
		t.Fatalf("unexpected ids %+v", e)
	}
	if !e.Timestamp.Equal(fixedNow) || e.Path != "/api/articles" {
		t.Fatalf("unexpected meta %+v", e)
	}
}

func TestAuditRecorder_DropsWhenSinkFull(t *testing.T) {
	sink := &stubSink{accept: false}
	rec := NewAuditRecorder(sink, zerolog.Nop())

	// Must not panic or block.
	rec.Record(context.Background(), "", "u1", domain.LoginDetails{Username: "rita"}, domain.RequestMeta{})
	rec.Record(context.Background(), "", "", nil, domain.RequestMeta{})

	if len(sink.entries) != 0 {
		t.Fatalf("expected nothing accepted")
	}
}
