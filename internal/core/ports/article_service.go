package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
)

// CreateArticleInput carries the fields of a new article.
type CreateArticleInput struct {
	Title   string
	Content string
	Tags    []string
	Status  string // optional; only admins may ask for published
}

// ListArticlesInput carries the public listing parameters. The visibility
// scope is always derived from the principal, never from the input.
type ListArticlesInput struct {
	Search string
	Tags   []string
	Author string // username
	SortBy string
	Page   int
	Limit  int
}

// ArticleView is an article together with its author's username.
type ArticleView struct {
	Article        *domain.Article
	AuthorUsername string
}

// ArticlePage is one page of a listing.
type ArticlePage struct {
	Items      []ArticleView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// DeleteArticleResult reports what a cascading delete removed.
type DeleteArticleResult struct {
	Article        *domain.Article
	LikesRemoved   int64
	ReviewsRemoved int64
}

// ArticleService defines use-case operations for articles.
type ArticleService interface {
	Create(ctx context.Context, p domain.Principal, in CreateArticleInput) (*domain.Article, error)
	// Get returns ErrArticleNotFound both for missing articles and for
	// articles p may not see.
	Get(ctx context.Context, p domain.Principal, id string) (*ArticleView, error)
	List(ctx context.Context, p domain.Principal, in ListArticlesInput) (*ArticlePage, error)
	ListMine(ctx context.Context, p domain.Principal, page, limit int) (*ArticlePage, error)
	ListAll(ctx context.Context, p domain.Principal, page, limit int) (*ArticlePage, error)
	Update(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error)
	Publish(ctx context.Context, p domain.Principal, id string) (*domain.Article, policy.Transition, error)
	Delete(ctx context.Context, p domain.Principal, id string) (*DeleteArticleResult, error)
}
