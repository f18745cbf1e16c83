package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/techpress/publishing-api/docs"
	"github.com/techpress/publishing-api/internal/api/handler"
	"github.com/techpress/publishing-api/internal/api/middleware"
	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// Deps carries the services and settings the router wires into handlers.
type Deps struct {
	Auth       ports.AuthService
	Articles   ports.ArticleService
	Engagement ports.EngagementService
	Admin      ports.AdminService
	Audit      ports.AuditRecorder

	// Checks back the readiness probe.
	Checks []handler.DependencyCheck

	JWTSecret string
	// Users resolves token subjects on every authenticated request.
	Users middleware.UserLookup
	// ExposeErrorDetail attaches internal error causes to 500 responses seen by admins.
	ExposeErrorDetail bool
	Logger            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.ExposeErrorDetail)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Logger))
	e.Use(middleware.Metrics())

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Audit)
	articleHandler := handler.NewArticleHandler(d.Articles, d.Audit)
	engagementHandler := handler.NewEngagementHandler(d.Engagement, d.Audit)
	adminHandler := handler.NewAdminHandler(d.Admin, d.Audit)

	requireAuth := middleware.Auth(d.JWTSecret, d.Users)
	optionalAuth := middleware.OptionalAuth(d.JWTSecret, d.Users)
	writers := middleware.RequireRoles(domain.RoleWriter, domain.RoleAdmin)
	admins := middleware.RequireRoles(domain.RoleAdmin)

	g := e.Group("/api")

	// --- Auth routes ---
	g.POST("/auth/register", authHandler.Register)
	g.POST("/auth/login", authHandler.Login)
	g.GET("/auth/me", authHandler.Me, requireAuth)

	// --- Article routes ---
	articles := g.Group("/articles")
	articles.GET("", articleHandler.List, optionalAuth)
	articles.GET("/my/articles", articleHandler.ListMine, requireAuth, writers)
	articles.GET("/admin/all", articleHandler.ListAll, requireAuth, admins)
	articles.GET("/:id", articleHandler.Get, optionalAuth)
	articles.POST("", articleHandler.Create, requireAuth, writers)
	articles.PUT("/:id", articleHandler.Update, requireAuth, writers)
	articles.PATCH("/:id/publish", articleHandler.Publish, requireAuth, admins)
	articles.DELETE("/:id", articleHandler.Delete, requireAuth, admins)

	// --- Like and review routes ---
	likes := g.Group("/likes")
	likes.POST("/:articleId", engagementHandler.ToggleLike, requireAuth)
	likes.GET("/:articleId", engagementHandler.LikeState, optionalAuth)
	likes.POST("/reviews/:articleId", engagementHandler.CreateReview, requireAuth)
	likes.GET("/reviews/:articleId", engagementHandler.ListReviews, optionalAuth)
	likes.PUT("/reviews/update/:reviewId", engagementHandler.UpdateReview, requireAuth)
	likes.DELETE("/reviews/:reviewId", engagementHandler.DeleteReview, requireAuth)

	// --- Admin routes ---
	admin := g.Group("/admin", requireAuth, admins)
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/analytics", adminHandler.Analytics)
	admin.GET("/audit-logs", adminHandler.AuditLogs)
	admin.GET("/users", adminHandler.Users)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)           // liveness
	e.GET("/health/ready", readinessHandler.Readiness) // readiness

	// --- Operational endpoints ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("user_id", middleware.PrincipalFrom(c).UserID).
				Msg("request")
			return nil
		},
	})
}
