package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// AdminHandler serves the admin-only statistics and user management endpoints.
type AdminHandler struct {
	service ports.AdminService
	audit   ports.AuditRecorder
}

func NewAdminHandler(service ports.AdminService, audit ports.AuditRecorder) *AdminHandler {
	return &AdminHandler{service: service, audit: audit}
}

// Dashboard returns headline counters, recent activity and the most viewed articles.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      403  {object}  map[string]string
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	d, err := h.service.Dashboard(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDashboardResponse(d))
}

// Analytics reports publishing trends, active writers and popular tags.
//
// @Summary      Admin analytics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        period  query     int  false  "Window in days (default 30)"
// @Success      200     {object}  analyticsResponse
// @Failure      403     {object}  map[string]string
// @Router       /admin/analytics [get]
func (h *AdminHandler) Analytics(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	a, err := h.service.Analytics(c.Request().Context(), p, queryInt(c, "period"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAnalyticsResponse(a))
}

// AuditLogs pages through the audit log, newest first.
//
// @Summary      Audit logs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        action  query     string  false  "Audit action"
// @Param        userId  query     string  false  "Acting user ID"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  auditLogListResponse
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /admin/audit-logs [get]
func (h *AdminHandler) AuditLogs(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	page, err := h.service.AuditLogs(c.Request().Context(), p, ports.AuditLogsInput{
		Action: c.QueryParam("action"),
		UserID: c.QueryParam("userId"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, auditLogListResponse{
		Logs:       toAuditLogs(page.Items),
		Pagination: toPagination(page.Page, page.Limit, page.Total, page.TotalPages),
	})
}

// Users lists users with their article breakdown.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role   query     string  false  "reader, writer or admin"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  userListResponse
// @Failure      403    {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	page, err := h.service.Users(c.Request().Context(), p, ports.ListUsersInput{
		Role:  c.QueryParam("role"),
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserListResponse(page))
}

// UpdateUser changes a user's profile or role.
//
// @Summary      Update user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userEnvelope
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, fields, err := h.service.UpdateUser(c.Request().Context(), p, c.Param("id"), toUpdateUserInput(req))
	if err != nil {
		return err
	}

	if len(fields) > 0 {
		h.audit.Record(c.Request().Context(), p.UserID, user.ID,
			domain.UserUpdatedDetails{TargetUserID: user.ID, UpdatedFields: fields}, requestMeta(c))
	}

	return c.JSON(http.StatusOK, userEnvelope{
		Message: "User updated successfully",
		User:    toUserResponse(user),
	})
}

// DeleteUser removes a user together with their articles, likes and reviews.
//
// @Summary      Delete user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  deleteUserResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	res, err := h.service.DeleteUser(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), p.UserID, res.User.ID, domain.UserDeletedDetails{
		TargetUserID:    res.User.ID,
		Username:        res.User.Username,
		Role:            res.User.Role,
		ArticlesDeleted: res.ArticlesDeleted,
	}, requestMeta(c))

	return c.JSON(http.StatusOK, deleteUserResponse{
		Message:         "User deleted successfully",
		ArticlesDeleted: res.ArticlesDeleted,
		LikesRemoved:    res.LikesRemoved,
		ReviewsRemoved:  res.ReviewsRemoved,
	})
}
