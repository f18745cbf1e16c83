package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/techpress/publishing-api/internal/api/middleware"
	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
	"github.com/techpress/publishing-api/internal/core/ports"
)

var (
	adminP  = domain.NewPrincipal("admin-1", "root", domain.RoleAdmin)
	writerP = domain.NewPrincipal("writer-1", "wendy", domain.RoleWriter)
	readerP = domain.NewPrincipal("reader-1", "rita", domain.RoleReader)
)

// newContext builds an echo context for a JSON request, optionally carrying p.
func newContext(method, target string, body io.Reader, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

// --- Audit ---

type recordedAudit struct {
	actorID    string
	resourceID string
	details    domain.AuditDetails
	meta       domain.RequestMeta
}

type recordingAudit struct {
	entries []recordedAudit
}

func (r *recordingAudit) Record(_ context.Context, actorID, resourceID string, details domain.AuditDetails, meta domain.RequestMeta) {
	r.entries = append(r.entries, recordedAudit{actorID: actorID, resourceID: resourceID, details: details, meta: meta})
}

// --- Auth ---

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	meFn       func(ctx context.Context, p domain.Principal) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.meFn(ctx, p)
}

// --- Articles ---

type stubArticleService struct {
	createFn   func(ctx context.Context, p domain.Principal, in ports.CreateArticleInput) (*domain.Article, error)
	getFn      func(ctx context.Context, p domain.Principal, id string) (*ports.ArticleView, error)
	listFn     func(ctx context.Context, p domain.Principal, in ports.ListArticlesInput) (*ports.ArticlePage, error)
	listMineFn func(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error)
	listAllFn  func(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error)
	updateFn   func(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error)
	publishFn  func(ctx context.Context, p domain.Principal, id string) (*domain.Article, policy.Transition, error)
	deleteFn   func(ctx context.Context, p domain.Principal, id string) (*ports.DeleteArticleResult, error)
}

func (s *stubArticleService) Create(ctx context.Context, p domain.Principal, in ports.CreateArticleInput) (*domain.Article, error) {
	return s.createFn(ctx, p, in)
}

func (s *stubArticleService) Get(ctx context.Context, p domain.Principal, id string) (*ports.ArticleView, error) {
	return s.getFn(ctx, p, id)
}

func (s *stubArticleService) List(ctx context.Context, p domain.Principal, in ports.ListArticlesInput) (*ports.ArticlePage, error) {
	return s.listFn(ctx, p, in)
}

func (s *stubArticleService) ListMine(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error) {
	return s.listMineFn(ctx, p, page, limit)
}

func (s *stubArticleService) ListAll(ctx context.Context, p domain.Principal, page, limit int) (*ports.ArticlePage, error) {
	return s.listAllFn(ctx, p, page, limit)
}

func (s *stubArticleService) Update(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error) {
	return s.updateFn(ctx, p, id, patch)
}

func (s *stubArticleService) Publish(ctx context.Context, p domain.Principal, id string) (*domain.Article, policy.Transition, error) {
	return s.publishFn(ctx, p, id)
}

func (s *stubArticleService) Delete(ctx context.Context, p domain.Principal, id string) (*ports.DeleteArticleResult, error) {
	return s.deleteFn(ctx, p, id)
}

// --- Engagement ---

type stubEngagementService struct {
	toggleFn       func(ctx context.Context, p domain.Principal, articleID string) (*ports.LikeToggle, error)
	likeStateFn    func(ctx context.Context, p domain.Principal, articleID string) (*domain.LikeState, error)
	createReviewFn func(ctx context.Context, p domain.Principal, articleID string, in ports.ReviewInput) (*domain.Review, error)
	listReviewsFn  func(ctx context.Context, p domain.Principal, articleID string, page, limit int) (*domain.ReviewPage, error)
	updateReviewFn func(ctx context.Context, p domain.Principal, reviewID string, patch domain.ReviewPatch) (*domain.Review, []string, error)
	deleteReviewFn func(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error)
}

func (s *stubEngagementService) ToggleLike(ctx context.Context, p domain.Principal, articleID string) (*ports.LikeToggle, error) {
	return s.toggleFn(ctx, p, articleID)
}

func (s *stubEngagementService) LikeState(ctx context.Context, p domain.Principal, articleID string) (*domain.LikeState, error) {
	return s.likeStateFn(ctx, p, articleID)
}

func (s *stubEngagementService) CreateReview(ctx context.Context, p domain.Principal, articleID string, in ports.ReviewInput) (*domain.Review, error) {
	return s.createReviewFn(ctx, p, articleID, in)
}

func (s *stubEngagementService) ListReviews(ctx context.Context, p domain.Principal, articleID string, page, limit int) (*domain.ReviewPage, error) {
	return s.listReviewsFn(ctx, p, articleID, page, limit)
}

func (s *stubEngagementService) UpdateReview(ctx context.Context, p domain.Principal, reviewID string, patch domain.ReviewPatch) (*domain.Review, []string, error) {
	return s.updateReviewFn(ctx, p, reviewID, patch)
}

func (s *stubEngagementService) DeleteReview(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error) {
	return s.deleteReviewFn(ctx, p, reviewID)
}

// --- Admin ---

type stubAdminService struct {
	dashboardFn  func(ctx context.Context, p domain.Principal) (*ports.Dashboard, error)
	analyticsFn  func(ctx context.Context, p domain.Principal, periodDays int) (*ports.Analytics, error)
	auditLogsFn  func(ctx context.Context, p domain.Principal, in ports.AuditLogsInput) (*ports.AuditLogPage, error)
	usersFn      func(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.UserPage, error)
	updateUserFn func(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, []string, error)
	deleteUserFn func(ctx context.Context, p domain.Principal, id string) (*ports.DeleteUserResult, error)
}

func (s *stubAdminService) Dashboard(ctx context.Context, p domain.Principal) (*ports.Dashboard, error) {
	return s.dashboardFn(ctx, p)
}

func (s *stubAdminService) Analytics(ctx context.Context, p domain.Principal, periodDays int) (*ports.Analytics, error) {
	return s.analyticsFn(ctx, p, periodDays)
}

func (s *stubAdminService) AuditLogs(ctx context.Context, p domain.Principal, in ports.AuditLogsInput) (*ports.AuditLogPage, error) {
	return s.auditLogsFn(ctx, p, in)
}

func (s *stubAdminService) Users(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.UserPage, error) {
	return s.usersFn(ctx, p, in)
}

func (s *stubAdminService) UpdateUser(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, []string, error) {
	return s.updateUserFn(ctx, p, id, in)
}

func (s *stubAdminService) DeleteUser(ctx context.Context, p domain.Principal, id string) (*ports.DeleteUserResult, error) {
	return s.deleteUserFn(ctx, p, id)
}
