package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// ArticleHandler handles HTTP requests for article operations.
type ArticleHandler struct {
	service ports.ArticleService
	audit   ports.AuditRecorder
}

func NewArticleHandler(service ports.ArticleService, audit ports.AuditRecorder) *ArticleHandler {
	return &ArticleHandler{service: service, audit: audit}
}

// List returns the articles visible to the caller.
//
// @Summary      List articles
// @Tags         articles
// @Produce      json
// @Param        search  query     string  false  "Case-insensitive match on title or content"
// @Param        tags    query     string  false  "Comma-separated tags (any of)"
// @Param        author  query     string  false  "Author username"
// @Param        sortBy  query     string  false  "newest, oldest or title"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  articleListResponse
// @Router       /articles [get]
func (h *ArticleHandler) List(c echo.Context) error {
	in := ports.ListArticlesInput{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Tags:   splitTags(c.QueryParam("tags")),
		Author: strings.TrimSpace(c.QueryParam("author")),
		SortBy: c.QueryParam("sortBy"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}

	page, err := h.service.List(c.Request().Context(), principal(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toArticleListResponse(page))
}

// ListMine returns the caller's own articles, drafts included.
//
// @Summary      List own articles
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  articleListResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /articles/my/articles [get]
func (h *ArticleHandler) ListMine(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListMine(c.Request().Context(), p, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toArticleListResponse(page))
}

// ListAll returns every article regardless of status.
//
// @Summary      List all articles (admin)
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  articleListResponse
// @Failure      403    {object}  map[string]string
// @Router       /articles/admin/all [get]
func (h *ArticleHandler) ListAll(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListAll(c.Request().Context(), p, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toArticleListResponse(page))
}

// Get returns a single article and counts a view when it is published.
//
// @Summary      Get article
// @Tags         articles
// @Produce      json
// @Param        id   path      string  true  "Article ID"
// @Success      200  {object}  articleEnvelope
// @Failure      404  {object}  map[string]string
// @Router       /articles/{id} [get]
func (h *ArticleHandler) Get(c echo.Context) error {
	view, err := h.service.Get(c.Request().Context(), principal(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, articleEnvelope{Article: toArticleResponse(view.Article, view.AuthorUsername)})
}

// Create stores a new article. Writers always create drafts.
//
// @Summary      Create article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createArticleRequest  true  "Article"
// @Success      201   {object}  articleEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /articles [post]
func (h *ArticleHandler) Create(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req createArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.Create(c.Request().Context(), p, ports.CreateArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  req.Status,
	})
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), p.UserID, a.ID,
		domain.ArticleCreatedDetails{Title: a.Title, Status: a.Status, Tags: a.Tags}, requestMeta(c))

	return c.JSON(http.StatusCreated, articleEnvelope{
		Message: "Article created successfully",
		Article: toArticleResponse(a, p.Username),
	})
}

// Update applies a partial edit.
//
// @Summary      Update article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Article ID"
// @Param        body  body      updateArticleRequest  true  "Fields to change"
// @Success      200   {object}  articleEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /articles/{id} [put]
func (h *ArticleHandler) Update(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req updateArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, tr, err := h.service.Update(c.Request().Context(), p, c.Param("id"), toArticlePatch(req))
	if err != nil {
		return err
	}

	if tr.Changed {
		h.audit.Record(c.Request().Context(), p.UserID, a.ID, domain.ArticleEditedDetails{
			UpdatedFields: tr.Fields,
			FromStatus:    tr.From,
			ToStatus:      tr.To,
		}, requestMeta(c))
	}

	return c.JSON(http.StatusOK, articleEnvelope{
		Message: "Article updated successfully",
		Article: toArticleResponse(a, authorName(p, a)),
	})
}

// Publish moves an article to published. Publishing twice is a no-op.
//
// @Summary      Publish article (admin)
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Article ID"
// @Success      200  {object}  articleEnvelope
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /articles/{id}/publish [patch]
func (h *ArticleHandler) Publish(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	a, tr, err := h.service.Publish(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}

	msg := "Article already published"
	if tr.Changed {
		msg = "Article published successfully"
		details := domain.ArticlePublishedDetails{Title: a.Title}
		if a.PublishedAt != nil {
			details.PublishedAt = *a.PublishedAt
		}
		h.audit.Record(c.Request().Context(), p.UserID, a.ID, details, requestMeta(c))
	}

	return c.JSON(http.StatusOK, articleEnvelope{
		Message: msg,
		Article: toArticleResponse(a, authorName(p, a)),
	})
}

// Delete removes an article together with its likes, reviews and analytics.
//
// @Summary      Delete article (admin)
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Article ID"
// @Success      200  {object}  deleteArticleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /articles/{id} [delete]
func (h *ArticleHandler) Delete(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	res, err := h.service.Delete(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), p.UserID, res.Article.ID, domain.ArticleDeletedDetails{
		Title:          res.Article.Title,
		AuthorID:       res.Article.AuthorID,
		LikesRemoved:   res.LikesRemoved,
		ReviewsRemoved: res.ReviewsRemoved,
	}, requestMeta(c))

	return c.JSON(http.StatusOK, deleteArticleResponse{
		Message:        "Article deleted successfully",
		LikesRemoved:   res.LikesRemoved,
		ReviewsRemoved: res.ReviewsRemoved,
	})
}

// authorName returns the author's username when the caller is the author.
func authorName(p domain.Principal, a *domain.Article) string {
	if p.Is(a.AuthorID) {
		return p.Username
	}
	return ""
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
