package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// EngagementHandler serves likes and reviews.
type EngagementHandler struct {
	service ports.EngagementService
	audit   ports.AuditRecorder
}

func NewEngagementHandler(service ports.EngagementService, audit ports.AuditRecorder) *EngagementHandler {
	return &EngagementHandler{service: service, audit: audit}
}

// ToggleLike likes the article, or removes the caller's like.
//
// @Summary      Toggle like
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        articleId  path      string  true  "Article ID"
// @Success      200        {object}  likeToggleResponse
// @Failure      401        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /likes/{articleId} [post]
func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	articleID := c.Param("articleId")
	res, err := h.service.ToggleLike(c.Request().Context(), p, articleID)
	if err != nil {
		return err
	}

	msg := "Article unliked"
	if res.State.Liked {
		msg = "Article liked"
	}
	if res.Changed {
		var details domain.AuditDetails = domain.UnlikeDetails{LikeCount: res.State.LikeCount}
		if res.State.Liked {
			details = domain.LikeDetails{LikeCount: res.State.LikeCount}
		}
		h.audit.Record(c.Request().Context(), p.UserID, articleID, details, requestMeta(c))
	}

	return c.JSON(http.StatusOK, likeToggleResponse{
		Message:   msg,
		Liked:     res.State.Liked,
		LikeCount: res.State.LikeCount,
	})
}

// LikeState reports the like count and whether the caller liked the article.
//
// @Summary      Like state
// @Tags         likes
// @Produce      json
// @Param        articleId  path      string  true  "Article ID"
// @Success      200        {object}  likeStateResponse
// @Failure      404        {object}  map[string]string
// @Router       /likes/{articleId} [get]
func (h *EngagementHandler) LikeState(c echo.Context) error {
	st, err := h.service.LikeState(c.Request().Context(), principal(c), c.Param("articleId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, likeStateResponse{Liked: st.Liked, LikeCount: st.LikeCount})
}

// CreateReview adds the caller's review. One review per user and article.
//
// @Summary      Create review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        articleId  path      string               true  "Article ID"
// @Param        body       body      createReviewRequest  true  "Review"
// @Success      201        {object}  reviewEnvelope
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Failure      409        {object}  map[string]string
// @Router       /likes/reviews/{articleId} [post]
func (h *EngagementHandler) CreateReview(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rv, err := h.service.CreateReview(c.Request().Context(), p, c.Param("articleId"), ports.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), p.UserID, rv.ID,
		domain.ReviewCreatedDetails{ArticleID: rv.ArticleID, Rating: rv.Rating}, requestMeta(c))

	return c.JSON(http.StatusCreated, reviewEnvelope{
		Message: "Review created successfully",
		Review:  toReviewResponse(rv),
	})
}

// ListReviews returns a page of reviews with the article's rating aggregates.
//
// @Summary      List reviews
// @Tags         reviews
// @Produce      json
// @Param        articleId  path      string  true   "Article ID"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  reviewListResponse
// @Failure      404        {object}  map[string]string
// @Router       /likes/reviews/{articleId} [get]
func (h *EngagementHandler) ListReviews(c echo.Context) error {
	page, err := h.service.ListReviews(c.Request().Context(), principal(c), c.Param("articleId"),
		queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewListResponse(page))
}

// UpdateReview lets the author of a review change its rating or comment.
//
// @Summary      Update review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reviewId  path      string               true  "Review ID"
// @Param        body      body      updateReviewRequest  true  "Fields to change"
// @Success      200       {object}  reviewEnvelope
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /likes/reviews/update/{reviewId} [put]
func (h *EngagementHandler) UpdateReview(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req updateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rv, fields, err := h.service.UpdateReview(c.Request().Context(), p, c.Param("reviewId"), domain.ReviewPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}

	if len(fields) > 0 {
		h.audit.Record(c.Request().Context(), p.UserID, rv.ID,
			domain.ReviewUpdatedDetails{ArticleID: rv.ArticleID, UpdatedFields: fields}, requestMeta(c))
	}

	return c.JSON(http.StatusOK, reviewEnvelope{
		Message: "Review updated successfully",
		Review:  toReviewResponse(rv),
	})
}

// DeleteReview removes a review. Its author or an admin may delete it.
//
// @Summary      Delete review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        reviewId  path      string  true  "Review ID"
// @Success      200       {object}  messageResponse
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /likes/reviews/{reviewId} [delete]
func (h *EngagementHandler) DeleteReview(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	rv, err := h.service.DeleteReview(c.Request().Context(), p, c.Param("reviewId"))
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), p.UserID, rv.ID,
		domain.ReviewDeletedDetails{ArticleID: rv.ArticleID, ByAdmin: !p.Is(rv.UserID)}, requestMeta(c))

	return c.JSON(http.StatusOK, messageResponse{Message: "Review deleted successfully"})
}
