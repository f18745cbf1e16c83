package ports

import (
	"context"
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Insert records a like. It reports false when the like already existed.
	Insert(ctx context.Context, like *domain.Like) (bool, error)
	// Remove deletes the like and reports whether one existed.
	Remove(ctx context.Context, userID, articleID string) (bool, error)
	Exists(ctx context.Context, userID, articleID string) (bool, error)
	CountByArticle(ctx context.Context, articleID string) (int64, error)
	DeleteByArticle(ctx context.Context, articleID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same user on the same
	// article returns domain.ErrReviewExists.
	Create(ctx context.Context, r *domain.Review) (*domain.Review, error)
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	// ListByArticle returns reviews newest first plus the total count.
	ListByArticle(ctx context.Context, articleID string, page, limit int) ([]*domain.Review, int64, error)
	// AverageRating returns 0 when the article has no reviews.
	AverageRating(ctx context.Context, articleID string) (float64, error)
	Update(ctx context.Context, r *domain.Review) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	DeleteByArticle(ctx context.Context, articleID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// PopularArticle pairs an article id with its view count.
type PopularArticle struct {
	ArticleID string
	Views     int64
}

// AnalyticsRepository defines persistence operations for per-article analytics.
type AnalyticsRepository interface {
	// Ensure creates the analytics document for articleID if it does not exist.
	Ensure(ctx context.Context, articleID string, now time.Time) error
	// RecordView atomically increments views and sets lastViewed, creating
	// the document when missing.
	RecordView(ctx context.Context, articleID string, now time.Time) error
	FindByArticle(ctx context.Context, articleID string) (*domain.ArticleAnalytics, error)
	TotalViews(ctx context.Context) (int64, error)
	TopByViews(ctx context.Context, limit int) ([]PopularArticle, error)
	DeleteByArticle(ctx context.Context, articleID string) error
}

// LikeGuard serializes like toggles for one (user, article) pair over a short
// window. Acquire reports false when another toggle holds the window.
type LikeGuard interface {
	Acquire(ctx context.Context, userID, articleID string) (bool, error)
}
