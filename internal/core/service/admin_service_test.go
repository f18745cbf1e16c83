package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

func newAdminSvc(f *fixture) *AdminService {
	articles := newArticleSvc(f)
	svc := NewAdminService(f.users, f.articles, f.likes, f.reviews, f.analytics, f.audits, articles, zerolog.Nop())
	svc.now = fixedClock
	return svc
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newAdminSvc(newFixture())

	for _, p := range []domain.Principal{domain.Anonymous(), readerP, writerP} {
		if _, err := svc.Dashboard(ctx, p); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("dashboard %s: expected ErrForbidden, got %v", p.Role, err)
		}
		if _, err := svc.Analytics(ctx, p, 7); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("analytics %s: expected ErrForbidden, got %v", p.Role, err)
		}
		if _, err := svc.AuditLogs(ctx, p, ports.AuditLogsInput{}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("audit logs %s: expected ErrForbidden, got %v", p.Role, err)
		}
		if _, err := svc.Users(ctx, p, ports.ListUsersInput{}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("users %s: expected ErrForbidden, got %v", p.Role, err)
		}
	}
}

func TestAdminService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedArticle("a1", writerP.UserID, domain.StatusPublished)
	f.seedArticle("a2", writerP.UserID, domain.StatusDraft)
	for i := 0; i < 3; i++ {
		_ = f.analytics.RecordView(ctx, "a1", fixedNow)
	}
	actor := writerP.UserID
	_ = f.audits.Insert(ctx, &domain.AuditEntry{ID: "e1", UserID: &actor, Action: domain.ActionCreateArticle})
	svc := newAdminSvc(f)

	d, err := svc.Dashboard(ctx, adminP)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	want := ports.DashboardStats{
		TotalArticles: 2, PublishedArticles: 1, DraftArticles: 1,
		TotalUsers: 4, TotalWriters: 2, TotalReaders: 1, TotalAdmins: 1,
		TotalViews: 3,
	}
	if d.Stats != want {
		t.Fatalf("stats: want %+v, got %+v", want, d.Stats)
	}
	if len(d.RecentActivity) != 1 || d.RecentActivity[0].Username != "wendy" {
		t.Fatalf("unexpected recent activity %+v", d.RecentActivity)
	}
	if len(d.PopularArticles) != 1 || d.PopularArticles[0].Views != 3 || d.PopularArticles[0].AuthorUsername != "wendy" {
		t.Fatalf("unexpected popular articles %+v", d.PopularArticles)
	}
}

func TestAdminService_Analytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedArticle("a1", writerP.UserID, domain.StatusPublished, "go", "api")
	f.seedArticle("a2", writerP.UserID, domain.StatusPublished, "go")
	old := f.seedArticle("a3", otherP.UserID, domain.StatusPublished, "rust")
	old.CreatedAt = fixedNow.AddDate(0, 0, -60)
	longAgo := fixedNow.AddDate(0, 0, -60)
	old.PublishedAt = &longAgo
	f.articles.put(old)
	svc := newAdminSvc(f)

	a, err := svc.Analytics(ctx, adminP, 0)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.PeriodDays != defaultAnalyticsDays {
		t.Fatalf("expected default period, got %d", a.PeriodDays)
	}
	if len(a.PublishingTrends) != 1 || a.PublishingTrends[0].Count != 2 {
		t.Fatalf("unexpected trends %+v", a.PublishingTrends)
	}
	if len(a.ActiveWriters) != 1 || a.ActiveWriters[0].Username != "wendy" || a.ActiveWriters[0].ArticleCount != 2 {
		t.Fatalf("unexpected writers %+v", a.ActiveWriters)
	}
	if len(a.PopularTags) == 0 || a.PopularTags[0].Tag != "go" || a.PopularTags[0].Count != 2 {
		t.Fatalf("unexpected tags %+v", a.PopularTags)
	}
}

func TestAdminService_AuditLogsFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w, r := writerP.UserID, readerP.UserID
	_ = f.audits.Insert(ctx, &domain.AuditEntry{ID: "1", UserID: &w, Action: domain.ActionCreateArticle, Timestamp: time.Now()})
	_ = f.audits.Insert(ctx, &domain.AuditEntry{ID: "2", UserID: &r, Action: domain.ActionLogin, Timestamp: time.Now()})
	_ = f.audits.Insert(ctx, &domain.AuditEntry{ID: "3", UserID: &w, Action: domain.ActionLogin, Timestamp: time.Now()})
	svc := newAdminSvc(f)

	page, err := svc.AuditLogs(ctx, adminP, ports.AuditLogsInput{Action: "LOGIN", UserID: w})
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if page.Total != 1 || page.Items[0].Entry.ID != "3" || page.Limit != auditPageSize {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := svc.AuditLogs(ctx, adminP, ports.AuditLogsInput{Action: "HACK"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown action, got %v", err)
	}
}

func TestAdminService_UsersWithStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedArticle("a1", writerP.UserID, domain.StatusPublished)
	f.seedArticle("a2", writerP.UserID, domain.StatusDraft)
	svc := newAdminSvc(f)

	page, err := svc.Users(ctx, adminP, ports.ListUsersInput{Role: "writer"})
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 writers, got %d", page.Total)
	}
	for _, u := range page.Items {
		if u.User.ID == writerP.UserID {
			if u.ArticleStats != (ports.AuthorStats{Total: 2, Published: 1, Drafts: 1}) {
				t.Fatalf("unexpected stats %+v", u.ArticleStats)
			}
		}
	}

	if _, err := svc.Users(ctx, adminP, ports.ListUsersInput{Role: "owner"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdminService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAdminSvc(f)

	promote := "writer"
	u, fields, err := svc.UpdateUser(ctx, adminP, readerP.UserID, ports.UpdateUserInput{Role: &promote})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Role != domain.RoleWriter || len(fields) != 1 || fields[0] != "role" {
		t.Fatalf("unexpected result %+v %v", u, fields)
	}

	demote := "reader"
	if _, _, err := svc.UpdateUser(ctx, adminP, adminP.UserID, ports.UpdateUserInput{Role: &demote}); !errors.Is(err, domain.ErrOwnRoleChange) {
		t.Fatalf("expected ErrOwnRoleChange, got %v", err)
	}

	taken := "wendy"
	if _, _, err := svc.UpdateUser(ctx, adminP, readerP.UserID, ports.UpdateUserInput{Username: &taken}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, _, err := svc.UpdateUser(ctx, adminP, "missing", ports.UpdateUserInput{Role: &promote}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.UpdateUser(ctx, writerP, readerP.UserID, ports.UpdateUserInput{Role: &promote}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdminService_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedArticle("a1", writerP.UserID, domain.StatusPublished)
	f.seedArticle("a2", otherP.UserID, domain.StatusPublished)
	_, _ = f.likes.Insert(ctx, &domain.Like{UserID: writerP.UserID, ArticleID: "a2"})
	_, _ = f.likes.Insert(ctx, &domain.Like{UserID: readerP.UserID, ArticleID: "a1"})
	_, _ = f.reviews.Create(ctx, &domain.Review{UserID: writerP.UserID, ArticleID: "a2", Rating: 4})
	svc := newAdminSvc(f)

	if _, err := svc.DeleteUser(ctx, adminP, adminP.UserID); !errors.Is(err, domain.ErrOwnAccountDeletion) {
		t.Fatalf("expected ErrOwnAccountDeletion, got %v", err)
	}

	res, err := svc.DeleteUser(ctx, adminP, writerP.UserID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.ArticlesDeleted != 1 || res.LikesRemoved != 1 || res.ReviewsRemoved != 1 {
		t.Fatalf("unexpected cascade %+v", res)
	}
	if _, err := f.users.FindByID(ctx, writerP.UserID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected user gone")
	}
	if n, _ := f.likes.CountByArticle(ctx, "a1"); n != 0 {
		t.Fatalf("likes on the deleted user's article must go, got %d", n)
	}
	if _, err := f.articles.FindByID(ctx, "a2"); err != nil {
		t.Fatalf("other articles must survive: %v", err)
	}
}
