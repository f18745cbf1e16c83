package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
	"github.com/techpress/publishing-api/internal/core/ports"
)

const (
	recentActivityLimit = 10
	popularArticleLimit = 5
	activeWriterLimit   = 10
	popularTagLimit     = 20

	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365

	auditPageSize    = 50
	auditMaxPageSize = 100
	userPageSize     = 20
	userMaxPageSize  = 100
)

// ArticlePurger removes all articles of an author together with their
// likes, reviews and analytics.
type ArticlePurger interface {
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}

// AdminService implements the admin statistics and user management use cases.
type AdminService struct {
	users     ports.UserRepository
	articles  ports.ArticleRepository
	likes     ports.LikeRepository
	reviews   ports.ReviewRepository
	analytics ports.AnalyticsRepository
	audits    ports.AuditRepository
	purger    ArticlePurger
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAdminService(
	users ports.UserRepository,
	articles ports.ArticleRepository,
	likes ports.LikeRepository,
	reviews ports.ReviewRepository,
	analytics ports.AnalyticsRepository,
	audits ports.AuditRepository,
	purger ArticlePurger,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		users:     users,
		articles:  articles,
		likes:     likes,
		reviews:   reviews,
		analytics: analytics,
		audits:    audits,
		purger:    purger,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *AdminService) Dashboard(ctx context.Context, p domain.Principal) (*ports.Dashboard, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}

	byStatus, err := s.articles.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	views, err := s.analytics.TotalViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	stats := ports.DashboardStats{
		PublishedArticles: byStatus[domain.StatusPublished],
		DraftArticles:     byStatus[domain.StatusDraft],
		TotalWriters:      byRole[domain.RoleWriter],
		TotalReaders:      byRole[domain.RoleReader],
		TotalAdmins:       byRole[domain.RoleAdmin],
		TotalViews:        views,
	}
	for _, n := range byStatus {
		stats.TotalArticles += n
	}
	for _, n := range byRole {
		stats.TotalUsers += n
	}

	entries, _, err := s.audits.List(ctx, domain.AuditQuery{Page: 1, Limit: recentActivityLimit})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	popular, err := s.popularArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	return &ports.Dashboard{
		Stats:           stats,
		RecentActivity:  s.auditViews(ctx, entries),
		PopularArticles: popular,
	}, nil
}

func (s *AdminService) popularArticles(ctx context.Context) ([]ports.PopularArticleView, error) {
	top, err := s.analytics.TopByViews(ctx, popularArticleLimit)
	if err != nil {
		return nil, err
	}

	out := make([]ports.PopularArticleView, 0, len(top))
	authorIDs := make([]string, 0, len(top))
	for _, t := range top {
		a, err := s.articles.FindByID(ctx, t.ArticleID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ports.PopularArticleView{ArticleID: a.ID, Title: a.Title, Views: t.Views})
		authorIDs = append(authorIDs, a.AuthorID)
	}

	authors := s.usernames(ctx, authorIDs)
	for i := range out {
		out[i].AuthorUsername = authors[authorIDs[i]]
	}
	return out, nil
}

// Analytics reports publishing activity over the last periodDays days.
func (s *AdminService) Analytics(ctx context.Context, p domain.Principal, periodDays int) (*ports.Analytics, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if periodDays <= 0 {
		periodDays = defaultAnalyticsDays
	}
	if periodDays > maxAnalyticsDays {
		periodDays = maxAnalyticsDays
	}
	since := s.now().UTC().AddDate(0, 0, -periodDays)

	trends, err := s.articles.PublishingTrend(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	writers, err := s.articles.ActiveWriters(ctx, since, activeWriterLimit)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	tags, err := s.articles.PopularTags(ctx, popularTagLimit)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	ids := make([]string, 0, len(writers))
	for _, w := range writers {
		ids = append(ids, w.AuthorID)
	}
	names := s.usernames(ctx, ids)

	active := make([]ports.ActiveWriterView, 0, len(writers))
	for _, w := range writers {
		name, ok := names[w.AuthorID]
		if !ok {
			// author deleted since; skip like an inner join would
			continue
		}
		active = append(active, ports.ActiveWriterView{WriterActivity: w, Username: name})
	}

	return &ports.Analytics{
		PeriodDays:       periodDays,
		PublishingTrends: trends,
		ActiveWriters:    active,
		PopularTags:      tags,
	}, nil
}

func (s *AdminService) AuditLogs(ctx context.Context, p domain.Principal, in ports.AuditLogsInput) (*ports.AuditLogPage, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	page, limit := domain.NormalizePage(in.Page, in.Limit, auditPageSize, auditMaxPageSize)

	q := domain.AuditQuery{UserID: in.UserID, Page: page, Limit: limit}
	if in.Action != "" {
		action, err := domain.ParseAuditAction(in.Action)
		if err != nil {
			return nil, err
		}
		q.Action = &action
	}

	entries, total, err := s.audits.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("audit logs: %w", err)
	}
	return &ports.AuditLogPage{
		Items:      s.auditViews(ctx, entries),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

func (s *AdminService) auditViews(ctx context.Context, entries []*domain.AuditEntry) []ports.AuditLogView {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	names := s.usernames(ctx, ids)

	out := make([]ports.AuditLogView, 0, len(entries))
	for _, e := range entries {
		v := ports.AuditLogView{Entry: e}
		if e.UserID != nil {
			v.Username = names[*e.UserID]
		}
		out = append(out, v)
	}
	return out
}

// usernames resolves ids to usernames. Lookup failures only cost the names.
func (s *AdminService) usernames(ctx context.Context, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve usernames")
		return out
	}
	for id, u := range users {
		out[id] = u.Username
	}
	return out
}

func (s *AdminService) Users(ctx context.Context, p domain.Principal, in ports.ListUsersInput) (*ports.UserPage, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	page, limit := domain.NormalizePage(in.Page, in.Limit, userPageSize, userMaxPageSize)

	filter := ports.ListUsersFilter{Page: page, Limit: limit}
	if in.Role != "" {
		role, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		filter.Role = &role
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	stats, err := s.articles.StatsByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	items := make([]ports.UserWithStats, 0, len(users))
	for _, u := range users {
		items = append(items, ports.UserWithStats{User: u, ArticleStats: stats[u.ID]})
	}
	return &ports.UserPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

// UpdateUser applies an admin patch to another account, or to the admin's own
// account except for its role.
func (s *AdminService) UpdateUser(ctx context.Context, p domain.Principal, id string, in ports.UpdateUserInput) (*domain.User, []string, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, nil, err
	}

	patch, err := userPatch(in)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.UpdateUser(p, id, patch); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, err
		}
		user.PasswordHash = string(hash)
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return user, nil, nil
	}
	user.UpdatedAt = s.now().UTC()

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", id).Strs("fields", fields).Str("by", p.UserID).Msg("user updated")
	return updated, fields, nil
}

func userPatch(in ports.UpdateUserInput) (domain.UserPatch, error) {
	var patch domain.UserPatch
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		u := strings.TrimSpace(*in.Username)
		if err := domain.ValidateUsername(u); err != nil {
			return patch, err
		}
		patch.Username = &u
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		e := domain.NormalizeEmail(*in.Email)
		if !strings.Contains(e, "@") {
			return patch, domain.NewValidationError("email", "must be a valid email")
		}
		patch.Email = &e
	}
	if in.Role != nil && *in.Role != "" {
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return patch, err
		}
		patch.Role = &r
	}
	if in.Password != nil && *in.Password != "" {
		if err := domain.ValidatePassword(*in.Password); err != nil {
			return patch, err
		}
		pw := *in.Password
		patch.Password = &pw
	}
	return patch, nil
}

// DeleteUser removes the account together with its articles, likes and reviews.
func (s *AdminService) DeleteUser(ctx context.Context, p domain.Principal, id string) (*ports.DeleteUserResult, error) {
	if err := policy.DeleteUser(p, id); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &ports.DeleteUserResult{User: user}

	if res.ArticlesDeleted, err = s.purger.DeleteByAuthor(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if res.LikesRemoved, err = s.likes.DeleteByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if res.ReviewsRemoved, err = s.reviews.DeleteByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Int64("articles_deleted", res.ArticlesDeleted).
		Int64("likes_removed", res.LikesRemoved).
		Int64("reviews_removed", res.ReviewsRemoved).
		Str("by", p.UserID).
		Msg("user deleted")
	return res, nil
}
