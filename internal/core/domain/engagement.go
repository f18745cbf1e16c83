package domain

import (
	"fmt"
	"strings"
	"time"
)

// Like is membership of a user in an article's like set.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is the like status of an article as seen by one principal.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

const (
	RatingMin         = 1
	RatingMax         = 5
	CommentMinLen     = 10
	CommentMaxLen     = 500
	ReviewsPageSize   = 10
	ReviewsMaxPerPage = 50
)

// Review is one user's rating and comment on an article.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	ArticleID string    `json:"article_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateRating checks the rating range.
func ValidateRating(rating int) error {
	if rating < RatingMin || rating > RatingMax {
		return NewValidationError("rating", fmt.Sprintf("must be between %d and %d", RatingMin, RatingMax))
	}
	return nil
}

// NormalizeComment trims the comment and checks its length.
func NormalizeComment(comment string) (string, error) {
	c := strings.TrimSpace(comment)
	n := len([]rune(c))
	if n < CommentMinLen || n > CommentMaxLen {
		return "", NewValidationError("comment", fmt.Sprintf("must be between %d and %d characters", CommentMinLen, CommentMaxLen))
	}
	return c, nil
}

// ReviewPatch is a partial review update.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// ReviewPage is one page of an article's reviews plus aggregates.
type ReviewPage struct {
	Reviews       []*Review
	TotalReviews  int64
	AverageRating float64
	Page          int
	Limit         int
	TotalPages    int
}

// ArticleAnalytics is the per-article view aggregate.
type ArticleAnalytics struct {
	ArticleID       string     `json:"article_id"`
	Views           int64      `json:"views"`
	UniqueViews     int64      `json:"unique_views"`
	TotalReadTime   int64      `json:"total_read_time"`
	AverageReadTime float64    `json:"average_read_time"`
	LastViewed      *time.Time `json:"last_viewed"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
