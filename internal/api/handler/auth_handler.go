package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	audit       ports.AuditRecorder
}

func NewAuthHandler(authService ports.AuthService, audit ports.AuditRecorder) *AuthHandler {
	return &AuthHandler{authService: authService, audit: audit}
}

// Register creates a new reader or writer account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), res.User.ID, res.User.ID,
		domain.RegisterDetails{Username: res.User.Username, Role: res.User.Role}, requestMeta(c))

	return c.JSON(http.StatusCreated, toAuthResponse("User registered successfully", res))
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.audit.Record(c.Request().Context(), res.User.ID, res.User.ID,
		domain.LoginDetails{Username: res.User.Username}, requestMeta(c))

	return c.JSON(http.StatusOK, toAuthResponse("Login successful", res))
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), p)
	if err != nil {
		return err
	}

	u := toUserResponse(user)
	return c.JSON(http.StatusOK, meResponse{User: &u})
}
