package handler

import (
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Message string        `json:"message,omitempty"`
	Token   string        `json:"token"`
	User    *userResponse `json:"user"`
}

type meResponse struct {
	User *userResponse `json:"user"`
}

type authorRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type articleResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	Author      authorRef  `json:"author"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type articleEnvelope struct {
	Message string          `json:"message,omitempty"`
	Article articleResponse `json:"article"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type articleListResponse struct {
	Articles   []articleResponse  `json:"articles"`
	Pagination paginationResponse `json:"pagination"`
}

type deleteArticleResponse struct {
	Message        string `json:"message"`
	LikesRemoved   int64  `json:"likesRemoved"`
	ReviewsRemoved int64  `json:"reviewsRemoved"`
}

type likeStateResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

type likeToggleResponse struct {
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"likeCount"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"articleId"`
	User      authorRef `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type reviewEnvelope struct {
	Message string         `json:"message"`
	Review  reviewResponse `json:"review"`
}

type reviewListResponse struct {
	Reviews       []reviewResponse   `json:"reviews"`
	TotalReviews  int64              `json:"totalReviews"`
	AverageRating float64            `json:"averageRating"`
	Pagination    paginationResponse `json:"pagination"`
}

type auditLogResponse struct {
	ID           string     `json:"id"`
	User         *authorRef `json:"user"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId,omitempty"`
	Details      any        `json:"details,omitempty"`
	Method       string     `json:"method,omitempty"`
	Path         string     `json:"path,omitempty"`
	IPAddress    string     `json:"ipAddress,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

type auditLogListResponse struct {
	Logs       []auditLogResponse `json:"logs"`
	Pagination paginationResponse `json:"pagination"`
}

type dashboardStatsResponse struct {
	TotalArticles     int64 `json:"totalArticles"`
	PublishedArticles int64 `json:"publishedArticles"`
	DraftArticles     int64 `json:"draftArticles"`
	TotalUsers        int64 `json:"totalUsers"`
	TotalWriters      int64 `json:"totalWriters"`
	TotalReaders      int64 `json:"totalReaders"`
	TotalAdmins       int64 `json:"totalAdmins"`
	TotalViews        int64 `json:"totalViews"`
}

type popularArticleResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Views  int64  `json:"views"`
}

type dashboardResponse struct {
	Stats           dashboardStatsResponse   `json:"stats"`
	RecentActivity  []auditLogResponse       `json:"recentActivity"`
	PopularArticles []popularArticleResponse `json:"popularArticles"`
}

type trendResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type activeWriterResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ArticleCount   int64  `json:"articleCount"`
	PublishedCount int64  `json:"publishedCount"`
}

type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type analyticsResponse struct {
	PeriodDays       int                    `json:"periodDays"`
	PublishingTrends []trendResponse        `json:"publishingTrends"`
	ActiveWriters    []activeWriterResponse `json:"activeWriters"`
	PopularTags      []tagCountResponse     `json:"popularTags"`
}

type articleStatsResponse struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}

type adminUserResponse struct {
	userResponse
	ArticleStats articleStatsResponse `json:"articleStats"`
}

type userListResponse struct {
	Users      []adminUserResponse `json:"users"`
	Pagination paginationResponse  `json:"pagination"`
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type deleteUserResponse struct {
	Message         string `json:"message"`
	ArticlesDeleted int64  `json:"articlesDeleted"`
	LikesRemoved    int64  `json:"likesRemoved"`
	ReviewsRemoved  int64  `json:"reviewsRemoved"`
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toAuthResponse(message string, r *ports.AuthResult) authResponse {
	u := toUserResponse(r.User)
	return authResponse{Message: message, Token: r.Token, User: &u}
}

func toArticleResponse(a *domain.Article, authorUsername string) articleResponse {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	var publishedAt *time.Time
	if a.PublishedAt != nil {
		t := a.PublishedAt.UTC()
		publishedAt = &t
	}
	return articleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Tags:        tags,
		Status:      string(a.Status),
		Author:      authorRef{ID: a.AuthorID, Username: authorUsername},
		PublishedAt: publishedAt,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func toPagination(page, limit int, total int64, totalPages int) paginationResponse {
	return paginationResponse{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func toArticleListResponse(p *ports.ArticlePage) articleListResponse {
	items := make([]articleResponse, 0, len(p.Items))
	for _, v := range p.Items {
		items = append(items, toArticleResponse(v.Article, v.AuthorUsername))
	}
	return articleListResponse{
		Articles:   items,
		Pagination: toPagination(p.Page, p.Limit, p.Total, p.TotalPages),
	}
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ArticleID: r.ArticleID,
		User:      authorRef{ID: r.UserID, Username: r.Username},
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toReviewListResponse(p *domain.ReviewPage) reviewListResponse {
	items := make([]reviewResponse, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		items = append(items, toReviewResponse(r))
	}
	return reviewListResponse{
		Reviews:       items,
		TotalReviews:  p.TotalReviews,
		AverageRating: p.AverageRating,
		Pagination:    toPagination(p.Page, p.Limit, p.TotalReviews, p.TotalPages),
	}
}

func toAuditLogResponse(v ports.AuditLogView) auditLogResponse {
	e := v.Entry
	out := auditLogResponse{
		ID:           e.ID,
		Action:       string(e.Action),
		ResourceType: string(e.ResourceType),
		ResourceID:   e.ResourceID,
		Method:       e.Method,
		Path:         e.Path,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Timestamp:    e.Timestamp.UTC(),
	}
	if e.Details != nil {
		out.Details = e.Details
	}
	if e.UserID != nil {
		out.User = &authorRef{ID: *e.UserID, Username: v.Username}
	}
	return out
}

func toAuditLogs(views []ports.AuditLogView) []auditLogResponse {
	out := make([]auditLogResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toAuditLogResponse(v))
	}
	return out
}

func toDashboardResponse(d *ports.Dashboard) dashboardResponse {
	popular := make([]popularArticleResponse, 0, len(d.PopularArticles))
	for _, p := range d.PopularArticles {
		popular = append(popular, popularArticleResponse{
			ID:     p.ArticleID,
			Title:  p.Title,
			Author: p.AuthorUsername,
			Views:  p.Views,
		})
	}
	s := d.Stats
	return dashboardResponse{
		Stats: dashboardStatsResponse{
			TotalArticles:     s.TotalArticles,
			PublishedArticles: s.PublishedArticles,
			DraftArticles:     s.DraftArticles,
			TotalUsers:        s.TotalUsers,
			TotalWriters:      s.TotalWriters,
			TotalReaders:      s.TotalReaders,
			TotalAdmins:       s.TotalAdmins,
			TotalViews:        s.TotalViews,
		},
		RecentActivity:  toAuditLogs(d.RecentActivity),
		PopularArticles: popular,
	}
}

func toAnalyticsResponse(a *ports.Analytics) analyticsResponse {
	trends := make([]trendResponse, 0, len(a.PublishingTrends))
	for _, t := range a.PublishingTrends {
		trends = append(trends, trendResponse{Date: t.Day, Count: t.Count})
	}
	writers := make([]activeWriterResponse, 0, len(a.ActiveWriters))
	for _, w := range a.ActiveWriters {
		writers = append(writers, activeWriterResponse{
			ID:             w.AuthorID,
			Username:       w.Username,
			ArticleCount:   w.ArticleCount,
			PublishedCount: w.PublishedCount,
		})
	}
	tags := make([]tagCountResponse, 0, len(a.PopularTags))
	for _, t := range a.PopularTags {
		tags = append(tags, tagCountResponse{Tag: t.Tag, Count: t.Count})
	}
	return analyticsResponse{
		PeriodDays:       a.PeriodDays,
		PublishingTrends: trends,
		ActiveWriters:    writers,
		PopularTags:      tags,
	}
}

func toUserListResponse(p *ports.UserPage) userListResponse {
	users := make([]adminUserResponse, 0, len(p.Items))
	for _, u := range p.Items {
		users = append(users, adminUserResponse{
			userResponse: toUserResponse(u.User),
			ArticleStats: articleStatsResponse{
				Total:     u.ArticleStats.Total,
				Published: u.ArticleStats.Published,
				Drafts:    u.ArticleStats.Drafts,
			},
		})
	}
	return userListResponse{
		Users:      users,
		Pagination: toPagination(p.Page, p.Limit, p.Total, p.TotalPages),
	}
}

// --- Request → Service input ---

func toArticlePatch(req updateArticleRequest) domain.ArticlePatch {
	return domain.ArticlePatch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Status:  req.Status,
	}
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	}
}
