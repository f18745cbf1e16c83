//go:build integration
// +build integration

package mongo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// setupTestDB starts a MongoDB container, creates the indexes and returns the
// database plus a cleanup func.
func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	client, db, err := Connect(ctx, Config{URI: uri, Database: "publishing_test", Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	cleanup := func() {
		_ = client.Disconnect(ctx)
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

func TestIntegration_ConcurrentLikesYieldOneRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	likes := NewLikeRepository(db)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := likes.Insert(ctx, &domain.Like{UserID: "u1", ArticleID: "a1", CreatedAt: time.Now()})
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Fatalf("expected exactly one successful insert, got %d", inserted)
	}
	n, err := likes.CountByArticle(ctx, "a1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected like count 1, got %d", n)
	}
}

func TestIntegration_ReviewUniqueness(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	reviews := NewReviewRepository(db)

	now := time.Now().UTC()
	first := &domain.Review{UserID: "u1", ArticleID: "a1", Rating: 5, Comment: "Great deep dive.", CreatedAt: now, UpdatedAt: now}
	if _, err := reviews.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reviews.Create(ctx, first); !errors.Is(err, domain.ErrReviewExists) {
		t.Fatalf("expected ErrReviewExists, got %v", err)
	}

	second := &domain.Review{UserID: "u2", ArticleID: "a1", Rating: 2, Comment: "Too shallow for me.", CreatedAt: now, UpdatedAt: now}
	if _, err := reviews.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	avg, err := reviews.AverageRating(ctx, "a1")
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if avg != 3.5 {
		t.Fatalf("expected average 3.5, got %f", avg)
	}
}

func TestIntegration_ArticleScopeAndViews(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	articles := NewArticleRepository(db)
	analytics := NewAnalyticsRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	pub, err := articles.Create(ctx, &domain.Article{
		Title: "Published piece", Content: "Some published content", Tags: []string{"go"},
		AuthorID: "w1", Status: domain.StatusPublished, PublishedAt: &now, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create published: %v", err)
	}
	if _, err := articles.Create(ctx, &domain.Article{
		Title: "Secret draft", Content: "Some draft content here", AuthorID: "w2",
		Status: domain.StatusDraft, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	list, total, err := articles.List(ctx, domain.ArticleQuery{
		Scope: domain.ArticleScope{Visibility: domain.VisibilityPublishedOrOwnDrafts, OwnerID: "w1"},
		Sort:  domain.SortNewest, Page: 1, Limit: 20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || list[0].ID != pub.ID {
		t.Fatalf("expected only the published article, got %d items", total)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := analytics.RecordView(ctx, pub.ID, time.Now()); err != nil {
				t.Errorf("record view: %v", err)
			}
		}()
	}
	wg.Wait()

	st, err := analytics.FindByArticle(ctx, pub.ID)
	if err != nil {
		t.Fatalf("find analytics: %v", err)
	}
	if st.Views != 5 {
		t.Fatalf("expected 5 views, got %d", st.Views)
	}
}

func TestIntegration_ArticleUpdateIsConditional(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	articles := NewArticleRepository(db)

	t0 := time.Now().UTC().Truncate(time.Millisecond)
	draft, err := articles.Create(ctx, &domain.Article{
		Title: "Draft piece", Content: "Some draft content here", AuthorID: "w1",
		Status: domain.StatusDraft, CreatedAt: t0, UpdatedAt: t0,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stale := draft.Revision()

	t1 := t0.Add(time.Second)
	published := draft.Clone()
	published.Status = domain.StatusPublished
	published.PublishedAt = &t1
	published.UpdatedAt = t1
	if _, err := articles.Update(ctx, published, stale); err != nil {
		t.Fatalf("publish: %v", err)
	}

	edit := draft.Clone()
	edit.Title = "Stale writer title"
	edit.UpdatedAt = t1.Add(time.Second)
	if _, err := articles.Update(ctx, edit, stale); !errors.Is(err, domain.ErrArticleChanged) {
		t.Fatalf("expected ErrArticleChanged for stale revision, got %v", err)
	}

	missing := edit.Clone()
	missing.ID = "000000000000000000000000"
	if _, err := articles.Update(ctx, missing, stale); !errors.Is(err, domain.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}

	got, err := articles.FindByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != domain.StatusPublished || got.Title != "Draft piece" || !got.PublishedAt.Equal(t1) {
		t.Fatalf("stale update leaked through: %+v", got)
	}
}

func TestIntegration_PublicListingOrdersByPublication(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	articles := NewArticleRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	oldCreatedAt, publishedToday := now.Add(-30*24*time.Hour), now
	recentCreatedAt, publishedLastWeek := now.Add(-8*24*time.Hour), now.Add(-7*24*time.Hour)

	late, err := articles.Create(ctx, &domain.Article{
		Title: "Old draft published today", Content: "Long in the making", AuthorID: "w1",
		Status: domain.StatusPublished, PublishedAt: &publishedToday, CreatedAt: oldCreatedAt, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := articles.Create(ctx, &domain.Article{
		Title: "Quick post last week", Content: "Written and shipped", AuthorID: "w2",
		Status: domain.StatusPublished, PublishedAt: &publishedLastWeek, CreatedAt: recentCreatedAt, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, _, err := articles.List(ctx, domain.ArticleQuery{
		Scope: domain.ArticleScope{Visibility: domain.VisibilityPublished},
		Sort:  domain.SortNewest, Page: 1, Limit: 10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != late.ID {
		t.Fatalf("expected the most recently published article first, got %+v", list)
	}
}
