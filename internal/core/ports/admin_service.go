package ports

import (
	"context"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// DashboardStats holds the headline counters of the admin dashboard.
type DashboardStats struct {
	TotalArticles     int64
	PublishedArticles int64
	DraftArticles     int64
	TotalUsers        int64
	TotalWriters      int64
	TotalReaders      int64
	TotalAdmins       int64
	TotalViews        int64
}

// AuditLogView is an audit entry with the acting user's name resolved.
type AuditLogView struct {
	Entry    *domain.AuditEntry
	Username string
}

// PopularArticleView is one row of the most-viewed list.
type PopularArticleView struct {
	ArticleID      string
	Title          string
	AuthorUsername string
	Views          int64
}

type Dashboard struct {
	Stats           DashboardStats
	RecentActivity  []AuditLogView
	PopularArticles []PopularArticleView
}

// ActiveWriterView is a WriterActivity with the author's username.
type ActiveWriterView struct {
	WriterActivity
	Username string
}

type Analytics struct {
	PeriodDays       int
	PublishingTrends []TrendPoint
	ActiveWriters    []ActiveWriterView
	PopularTags      []TagCount
}

// AuditLogsInput filters the audit log listing. Empty strings mean no filter.
type AuditLogsInput struct {
	Action string
	UserID string
	Page   int
	Limit  int
}

type AuditLogPage struct {
	Items      []AuditLogView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListUsersInput filters the user listing. An empty Role means all roles.
type ListUsersInput struct {
	Role  string
	Page  int
	Limit int
}

// UserWithStats is a user together with their article breakdown.
type UserWithStats struct {
	User         *domain.User
	ArticleStats AuthorStats
}

type UserPage struct {
	Items      []UserWithStats
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UpdateUserInput is the admin user patch. Nil or empty fields are left alone.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Role     *string
	Password *string
}

// DeleteUserResult reports what a cascading user delete removed.
type DeleteUserResult struct {
	User            *domain.User
	ArticlesDeleted int64
	LikesRemoved    int64
	ReviewsRemoved  int64
}

// AdminService defines the admin-only statistics and user management use cases.
type AdminService interface {
	Dashboard(ctx context.Context, p domain.Principal) (*Dashboard, error)
	Analytics(ctx context.Context, p domain.Principal, periodDays int) (*Analytics, error)
	AuditLogs(ctx context.Context, p domain.Principal, in AuditLogsInput) (*AuditLogPage, error)
	Users(ctx context.Context, p domain.Principal, in ListUsersInput) (*UserPage, error)
	// UpdateUser returns the names of the fields that were applied.
	UpdateUser(ctx context.Context, p domain.Principal, id string, in UpdateUserInput) (*domain.User, []string, error)
	DeleteUser(ctx context.Context, p domain.Principal, id string) (*DeleteUserResult, error)
}
