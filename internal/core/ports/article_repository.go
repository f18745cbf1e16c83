package ports

import (
	"context"
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// AuthorStats is the per-author article breakdown.
type AuthorStats struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}

// TrendPoint is the number of articles published on one UTC day.
type TrendPoint struct {
	Day   string `json:"date"`
	Count int64  `json:"count"`
}

// WriterActivity counts articles an author created inside a window.
type WriterActivity struct {
	AuthorID       string `json:"author_id"`
	ArticleCount   int64  `json:"article_count"`
	PublishedCount int64  `json:"published_count"`
}

// TagCount is the number of published articles carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, a *domain.Article) (*domain.Article, error)
	FindByID(ctx context.Context, id string) (*domain.Article, error)
	// List returns a page of articles matching q and the total count.
	// The scope predicate is always applied.
	List(ctx context.Context, q domain.ArticleQuery) ([]*domain.Article, int64, error)
	// Update persists the mutable fields (title, content, tags, status,
	// publishedAt, updatedAt) of an existing article, but only while the
	// stored article still matches rev. Otherwise it returns
	// domain.ErrArticleChanged.
	Update(ctx context.Context, a *domain.Article, rev domain.ArticleRevision) (*domain.Article, error)
	Delete(ctx context.Context, id string) error
	IDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	CountByStatus(ctx context.Context) (map[domain.ArticleStatus]int64, error)
	StatsByAuthors(ctx context.Context, authorIDs []string) (map[string]AuthorStats, error)
	PublishingTrend(ctx context.Context, since time.Time) ([]TrendPoint, error)
	ActiveWriters(ctx context.Context, since time.Time, limit int) ([]WriterActivity, error)
	PopularTags(ctx context.Context, limit int) ([]TagCount, error)
}
