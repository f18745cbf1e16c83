package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// LikeToggle is the outcome of a like toggle. Changed is false when the
// toggle was absorbed by the concurrency guard and only the current state
// was returned.
type LikeToggle struct {
	State   domain.LikeState
	Changed bool
}

// ReviewInput carries a new review.
type ReviewInput struct {
	Rating  int
	Comment string
}

// EngagementService covers likes and reviews. Every operation that targets an
// article first checks that the principal may view it.
type EngagementService interface {
	ToggleLike(ctx context.Context, p domain.Principal, articleID string) (*LikeToggle, error)
	LikeState(ctx context.Context, p domain.Principal, articleID string) (*domain.LikeState, error)
	CreateReview(ctx context.Context, p domain.Principal, articleID string, in ReviewInput) (*domain.Review, error)
	ListReviews(ctx context.Context, p domain.Principal, articleID string, page, limit int) (*domain.ReviewPage, error)
	// UpdateReview returns the names of the fields that changed.
	UpdateReview(ctx context.Context, p domain.Principal, reviewID string, patch domain.ReviewPatch) (*domain.Review, []string, error)
	DeleteReview(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error)
}
