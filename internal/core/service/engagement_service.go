package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
	"github.com/techpress/publishing-api/internal/core/ports"
	"github.com/techpress/publishing-api/internal/pkg/metrics"
)

type engagementService struct {
	articles ports.ArticleRepository
	users    ports.UserRepository
	likes    ports.LikeRepository
	reviews  ports.ReviewRepository
	guard    ports.LikeGuard
	log      zerolog.Logger
	now      func() time.Time
}

// NewEngagementService returns an EngagementService implementation.
// guard may be nil, in which case only the store's unique index protects
// against concurrent toggles.
func NewEngagementService(
	articles ports.ArticleRepository,
	users ports.UserRepository,
	likes ports.LikeRepository,
	reviews ports.ReviewRepository,
	guard ports.LikeGuard,
	log zerolog.Logger,
) ports.EngagementService {
	return &engagementService{
		articles: articles,
		users:    users,
		likes:    likes,
		reviews:  reviews,
		guard:    guard,
		log:      log,
		now:      time.Now,
	}
}

// visibleArticle loads the article and hides it unless p may view it.
func (s *engagementService) visibleArticle(ctx context.Context, p domain.Principal, articleID string) (*domain.Article, error) {
	a, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if err := policy.View(p, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ToggleLike flips p's like on the article.
func (s *engagementService) ToggleLike(ctx context.Context, p domain.Principal, articleID string) (*ports.LikeToggle, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	a, err := s.visibleArticle(ctx, p, articleID)
	if err != nil {
		return nil, err
	}

	// 1. Toggle guard: a second toggle inside the window replays state.
	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, p.UserID, a.ID)
		if err != nil {
			metrics.LikeGuardErrorsTotal.Inc()
			s.log.Warn().Err(err).Str("article_id", a.ID).Msg("like guard failed, toggling anyway")
		} else if !acquired {
			state, err := s.state(ctx, p.UserID, a.ID)
			if err != nil {
				return nil, err
			}
			metrics.LikeTogglesTotal.WithLabelValues("replayed").Inc()
			return &ports.LikeToggle{State: *state}, nil
		}
	}

	// 2. Remove an existing like, otherwise insert one.
	removed, err := s.likes.Remove(ctx, p.UserID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	liked, changed := !removed, removed
	if liked {
		// A concurrent toggle may have inserted first; the unique index keeps one record.
		inserted, err := s.likes.Insert(ctx, &domain.Like{UserID: p.UserID, ArticleID: a.ID, CreatedAt: s.now().UTC()})
		if err != nil {
			return nil, fmt.Errorf("toggle like: %w", err)
		}
		changed = inserted
	}

	count, err := s.likes.CountByArticle(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	result := "unliked"
	switch {
	case !changed:
		result = "replayed"
	case liked:
		result = "liked"
	}
	metrics.LikeTogglesTotal.WithLabelValues(result).Inc()

	return &ports.LikeToggle{
		State:   domain.LikeState{Liked: liked, LikeCount: count},
		Changed: changed,
	}, nil
}

// LikeState reports the like count and, for an authenticated p, whether p liked it.
func (s *engagementService) LikeState(ctx context.Context, p domain.Principal, articleID string) (*domain.LikeState, error) {
	a, err := s.visibleArticle(ctx, p, articleID)
	if err != nil {
		return nil, err
	}
	return s.state(ctx, p.UserID, a.ID)
}

func (s *engagementService) state(ctx context.Context, userID, articleID string) (*domain.LikeState, error) {
	count, err := s.likes.CountByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("like state: %w", err)
	}
	st := &domain.LikeState{LikeCount: count}
	if userID != "" {
		st.Liked, err = s.likes.Exists(ctx, userID, articleID)
		if err != nil {
			return nil, fmt.Errorf("like state: %w", err)
		}
	}
	return st, nil
}

func (s *engagementService) CreateReview(ctx context.Context, p domain.Principal, articleID string, in ports.ReviewInput) (*domain.Review, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	a, err := s.visibleArticle(ctx, p, articleID)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateRating(in.Rating); err != nil {
		return nil, err
	}
	comment, err := domain.NormalizeComment(in.Comment)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.reviews.Create(ctx, &domain.Review{
		UserID:    p.UserID,
		Username:  p.Username,
		ArticleID: a.ID,
		Rating:    in.Rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues("create").Inc()
	return created, nil
}

// ListReviews returns one page of reviews, newest first, with the total count
// and average rating across all pages.
func (s *engagementService) ListReviews(ctx context.Context, p domain.Principal, articleID string, page, limit int) (*domain.ReviewPage, error) {
	a, err := s.visibleArticle(ctx, p, articleID)
	if err != nil {
		return nil, err
	}
	page, limit = domain.NormalizePage(page, limit, domain.ReviewsPageSize, domain.ReviewsMaxPerPage)

	items, total, err := s.reviews.ListByArticle(ctx, a.ID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	avg, err := s.reviews.AverageRating(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	s.resolveReviewers(ctx, items)

	return &domain.ReviewPage{
		Reviews:       items,
		TotalReviews:  total,
		AverageRating: avg,
		Page:          page,
		Limit:         limit,
		TotalPages:    domain.TotalPages(total, limit),
	}, nil
}

func (s *engagementService) resolveReviewers(ctx context.Context, items []*domain.Review) {
	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.UserID)
	}
	if len(ids) == 0 {
		return
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to resolve reviewers")
		return
	}
	for _, r := range items {
		if u, ok := users[r.UserID]; ok {
			r.Username = u.Username
		}
	}
}

// UpdateReview lets the owner change rating and comment.
func (s *engagementService) UpdateReview(ctx context.Context, p domain.Principal, reviewID string, patch domain.ReviewPatch) (*domain.Review, []string, error) {
	r, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.EditReview(p, r); err != nil {
		return nil, nil, err
	}

	var fields []string
	if patch.Rating != nil {
		if err := domain.ValidateRating(*patch.Rating); err != nil {
			return nil, nil, err
		}
		if *patch.Rating != r.Rating {
			r.Rating = *patch.Rating
			fields = append(fields, "rating")
		}
	}
	if patch.Comment != nil && *patch.Comment != "" {
		c, err := domain.NormalizeComment(*patch.Comment)
		if err != nil {
			return nil, nil, err
		}
		if c != r.Comment {
			r.Comment = c
			fields = append(fields, "comment")
		}
	}
	if len(fields) == 0 {
		return r, nil, nil
	}

	r.UpdatedAt = s.now().UTC()
	updated, err := s.reviews.Update(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	metrics.ReviewsTotal.WithLabelValues("update").Inc()
	return updated, fields, nil
}

// DeleteReview lets the owner or an admin remove a review.
func (s *engagementService) DeleteReview(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error) {
	r, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.DeleteReview(p, r); err != nil {
		return nil, err
	}
	if err := s.reviews.Delete(ctx, r.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	metrics.ReviewsTotal.WithLabelValues("delete").Inc()
	return r, nil
}
