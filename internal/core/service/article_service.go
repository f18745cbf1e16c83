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

// ArticleService wires the article policy to persistence.
type ArticleService struct {
	articles  ports.ArticleRepository
	users     ports.UserRepository
	likes     ports.LikeRepository
	reviews   ports.ReviewRepository
	analytics ports.AnalyticsRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewArticleService(
	articles ports.ArticleRepository,
	users ports.UserRepository,
	likes ports.LikeRepository,
	reviews ports.ReviewRepository,
	analytics ports.AnalyticsRepository,
	logger zerolog.Logger,
) *ArticleService {
	return &ArticleService{
		articles:  articles,
		users:     users,
		likes:     likes,
		reviews:   reviews,
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ArticleService) Create(ctx context.Context, p domain.Principal, in ports.CreateArticleInput) (*domain.Article, error) {
	a, err := policy.NewArticle(p, in.Title, in.Content, in.Tags, in.Status, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.articles.Create(ctx, a)
	if err != nil {
		s.logger.Error().Err(err).Str("author_id", p.UserID).Msg("failed to create article")
		return nil, err
	}
	if created.IsPublished() {
		s.ensureAnalytics(ctx, created.ID)
	}

	metrics.ArticleTransitionsTotal.WithLabelValues("create").Inc()
	s.logger.Info().Str("article_id", created.ID).Str("author_id", p.UserID).Str("status", string(created.Status)).Msg("article created")
	return created, nil
}

// Get returns the article if p may see it. Viewing a published article counts
// one view; drafts opened by their author or an admin are not counted.
func (s *ArticleService) Get(ctx context.Context, p domain.Principal, id string) (*ports.ArticleView, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.View(p, a); err != nil {
		return nil, err
	}

	if a.IsPublished() {
		if err := s.analytics.RecordView(ctx, a.ID, s.now().UTC()); err != nil {
			s.logger.Warn().Err(err).Str("article_id", a.ID).Msg("failed to record view")
		} else {
			metrics.ArticleViewsTotal.Inc()
		}
	}

	view := &ports.ArticleView{Article: a}
	if author, err := s.users.FindByID(ctx, a.AuthorID); err == nil {
		view.AuthorUsername = author.Username
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn().Err(err).Str("article_id", a.ID).Msg("failed to resolve author")
	}
	return view, nil
}

// List returns the articles visible to p, filtered and sorted per in.
func (s *ArticleService) List(ctx context.Context, p domain.Principal, in ports.ListArticlesInput) (*ports.ArticlePage, error) {
	page, limit := domain.NormalizePage(in.Page, in.Limit, domain.DefaultPageSize, domain.MaxPageSize)
	q := domain.ArticleQuery{
		Scope:  policy.ListScope(p),
		Search: in.Search,
		Tags:   in.Tags,
		Sort:   domain.ParseArticleSort(in.SortBy),
		Page:   page,
		Limit:  limit,
	}

	if in.Author != "" {
		author, err := s.users.FindByUsername(ctx, in.Author)
		if errors.Is(err, domain.ErrNotFound) {
			return &ports.ArticlePage{Items: []ports.ArticleView{}, Page: page, Limit: limit}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list articles: resolve author: %w", err)
		}
		q.AuthorID = author.ID
	}

	return s.query(ctx, q)
}

// ListMine returns every article authored by p, newest first.
func (s *ArticleService) ListMine(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error) {
	if !policy.CanAuthor(p) {
		return nil, domain.ErrForbidden
	}
	page, limit = domain.NormalizePage(page, limit, domain.DefaultPageSize, domain.MaxPageSize)
	return s.query(ctx, domain.ArticleQuery{
		Scope:    domain.ArticleScope{Visibility: domain.VisibilityAll},
		AuthorID: p.UserID,
		Sort:     domain.SortCreated,
		Page:     page,
		Limit:    limit,
	})
}

// ListAll returns every article for an admin, drafts first.
func (s *ArticleService) ListAll(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	page, limit = domain.NormalizePage(page, limit, domain.DefaultPageSize, domain.MaxPageSize)
	return s.query(ctx, domain.ArticleQuery{
		Scope: domain.ArticleScope{Visibility: domain.VisibilityAll},
		Sort:  domain.SortStatus,
		Page:  page,
		Limit: limit,
	})
}

func (s *ArticleService) query(ctx context.Context, q domain.ArticleQuery) (*ports.ArticlePage, error) {
	items, total, err := s.articles.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	ids := make([]string, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.AuthorID)
	}
	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve article authors")
		authors = nil
	}

	views := make([]ports.ArticleView, 0, len(items))
	for _, a := range items {
		v := ports.ArticleView{Article: a}
		if u, ok := authors[a.AuthorID]; ok {
			v.AuthorUsername = u.Username
		}
		views = append(views, v)
	}

	return &ports.ArticlePage{
		Items:      views,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: domain.TotalPages(total, q.Limit),
	}, nil
}

// maxEditAttempts bounds the re-read loop when a conditional write loses a race.
const maxEditAttempts = 3

// transitionFunc computes the next state of an article from its stored state.
type transitionFunc func(current *domain.Article) (*domain.Article, policy.Transition, error)

// commit reads the article, applies fn and writes the result conditionally on
// the revision that was read. When another request changed the article in
// between, the article is re-read and fn runs again on the fresh state, so the
// policy always judges what is actually stored.
func (s *ArticleService) commit(ctx context.Context, id string, fn transitionFunc) (*domain.Article, policy.Transition, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.articles.FindByID(ctx, id)
		if err != nil {
			return nil, policy.Transition{}, err
		}

		next, tr, err := fn(current)
		if err != nil {
			return nil, policy.Transition{}, err
		}
		if !tr.Changed {
			return next, tr, nil
		}

		rev := current.Revision()
		advanceRevision(next, rev)
		updated, err := s.articles.Update(ctx, next, rev)
		if errors.Is(err, domain.ErrArticleChanged) && attempt < maxEditAttempts {
			s.logger.Debug().Str("article_id", id).Int("attempt", attempt).Msg("article changed concurrently, retrying")
			continue
		}
		if err != nil {
			return nil, policy.Transition{}, err
		}
		return updated, tr, nil
	}
}

// advanceRevision keeps updated_at strictly increasing at the store's
// millisecond precision so every write produces a new revision.
func advanceRevision(next *domain.Article, rev domain.ArticleRevision) {
	floor := rev.UpdatedAt.Truncate(time.Millisecond).Add(time.Millisecond)
	if next.UpdatedAt.Before(floor) {
		next.UpdatedAt = floor
	}
}

// Update applies a partial edit. A patch that changes nothing is not written.
func (s *ArticleService) Update(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error) {
	updated, tr, err := s.commit(ctx, id, func(current *domain.Article) (*domain.Article, policy.Transition, error) {
		return policy.ApplyEdit(p, current, patch, s.now())
	})
	if err != nil || !tr.Changed {
		return updated, tr, err
	}
	if tr.Published() {
		s.ensureAnalytics(ctx, updated.ID)
	}

	action := "edit"
	switch {
	case tr.Published():
		action = "publish"
	case tr.Unpublished():
		action = "unpublish"
	}
	metrics.ArticleTransitionsTotal.WithLabelValues(action).Inc()
	s.logger.Info().Str("article_id", updated.ID).Strs("fields", tr.Fields).Str("status", string(updated.Status)).Msg("article updated")
	return updated, tr, nil
}

// Publish moves the article to published. Publishing twice is a no-op.
func (s *ArticleService) Publish(ctx context.Context, p domain.Principal, id string) (*domain.Article, policy.Transition, error) {
	updated, tr, err := s.commit(ctx, id, func(current *domain.Article) (*domain.Article, policy.Transition, error) {
		return policy.Publish(p, current, s.now())
	})
	if err != nil || !tr.Changed {
		return updated, tr, err
	}
	s.ensureAnalytics(ctx, updated.ID)

	metrics.ArticleTransitionsTotal.WithLabelValues("publish").Inc()
	s.logger.Info().Str("article_id", updated.ID).Msg("article published")
	return updated, tr, nil
}

// Delete removes the article and then its likes, reviews and analytics.
// Failures in the cascade are logged; the article itself is already gone.
func (s *ArticleService) Delete(ctx context.Context, p domain.Principal, id string) (*ports.DeleteArticleResult, error) {
	current, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Delete(p, current); err != nil {
		return nil, err
	}

	if err := s.articles.Delete(ctx, current.ID); err != nil {
		return nil, err
	}
	res := s.cascade(ctx, current)

	metrics.ArticleTransitionsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("article_id", current.ID).Int64("likes_removed", res.LikesRemoved).Int64("reviews_removed", res.ReviewsRemoved).Msg("article deleted")
	return res, nil
}

// DeleteByAuthor removes every article of authorID with the same cascade as
// Delete and returns how many articles were removed.
func (s *ArticleService) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	ids, err := s.articles.IDsByAuthor(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete articles by author: %w", err)
	}

	var deleted int64
	for _, id := range ids {
		if err := s.articles.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return deleted, fmt.Errorf("delete articles by author: %w", err)
		}
		s.cascade(ctx, &domain.Article{ID: id, AuthorID: authorID})
		deleted++
	}
	if deleted > 0 {
		metrics.ArticleTransitionsTotal.WithLabelValues("delete").Add(float64(deleted))
	}
	return deleted, nil
}

func (s *ArticleService) cascade(ctx context.Context, a *domain.Article) *ports.DeleteArticleResult {
	res := &ports.DeleteArticleResult{Article: a}

	n, err := s.likes.DeleteByArticle(ctx, a.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("article_id", a.ID).Msg("failed to delete article likes")
	}
	res.LikesRemoved = n

	n, err = s.reviews.DeleteByArticle(ctx, a.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("article_id", a.ID).Msg("failed to delete article reviews")
	}
	res.ReviewsRemoved = n

	if err := s.analytics.DeleteByArticle(ctx, a.ID); err != nil {
		s.logger.Error().Err(err).Str("article_id", a.ID).Msg("failed to delete article analytics")
	}
	return res
}

func (s *ArticleService) ensureAnalytics(ctx context.Context, articleID string) {
	if err := s.analytics.Ensure(ctx, articleID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("article_id", articleID).Msg("failed to create analytics")
	}
}
