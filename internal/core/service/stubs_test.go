package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory repositories shared by the service tests.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) clash(u *domain.User) bool {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return true
		}
	}
	return false
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clash(user) {
		return nil, domain.ErrUserExists
	}
	c := cloneUser(user)
	if c.ID == "" {
		r.seq++
		c.ID = fmt.Sprintf("u%d", r.seq)
	}
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.User
	for _, u := range r.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if r.clash(user) {
		return nil, domain.ErrUserExists
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.Role]int64)
	for _, u := range r.users {
		out[u.Role]++
	}
	return out, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type stubArticleRepo struct {
	mu       sync.Mutex
	seq      int
	articles map[string]*domain.Article
	updates  int
	lastQ    domain.ArticleQuery

	conflicts int
	// beforeUpdate runs once, just before the next Update takes the lock,
	// to interleave another request between a read and its write.
	beforeUpdate func(ctx context.Context)
}

func (r *stubArticleRepo) arm(hook func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeUpdate = hook
}

func (r *stubArticleRepo) takeBeforeUpdate() func(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hook := r.beforeUpdate
	r.beforeUpdate = nil
	return hook
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{articles: make(map[string]*domain.Article)}
}

func (r *stubArticleRepo) put(a *domain.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[a.ID] = a.Clone()
}

func (r *stubArticleRepo) Create(_ context.Context, a *domain.Article) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := a.Clone()
	r.seq++
	c.ID = fmt.Sprintf("a%d", r.seq)
	r.articles[c.ID] = c.Clone()
	return c, nil
}

func (r *stubArticleRepo) FindByID(_ context.Context, id string) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.articles[id]; ok {
		return a.Clone(), nil
	}
	return nil, domain.ErrArticleNotFound
}

func visible(scope domain.ArticleScope, a *domain.Article) bool {
	switch scope.Visibility {
	case domain.VisibilityAll:
		return true
	case domain.VisibilityPublishedOrOwnDrafts:
		return a.IsPublished() || a.AuthorID == scope.OwnerID
	default:
		return a.IsPublished()
	}
}

func (r *stubArticleRepo) List(_ context.Context, q domain.ArticleQuery) ([]*domain.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQ = q
	var out []*domain.Article
	for _, a := range r.articles {
		if !visible(q.Scope, a) {
			continue
		}
		if q.AuthorID != "" && a.AuthorID != q.AuthorID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, q.Page, q.Limit), int64(len(out)), nil
}

func (r *stubArticleRepo) Update(ctx context.Context, a *domain.Article, rev domain.ArticleRevision) (*domain.Article, error) {
	if hook := r.takeBeforeUpdate(); hook != nil {
		hook(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.articles[a.ID]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	if stored.Revision() != rev {
		r.conflicts++
		return nil, domain.ErrArticleChanged
	}
	r.updates++
	r.articles[a.ID] = a.Clone()
	return a.Clone(), nil
}

func (r *stubArticleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return domain.ErrArticleNotFound
	}
	delete(r.articles, id)
	return nil
}

func (r *stubArticleRepo) IDsByAuthor(_ context.Context, authorID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, a := range r.articles {
		if a.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *stubArticleRepo) CountByStatus(_ context.Context) (map[domain.ArticleStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.ArticleStatus]int64)
	for _, a := range r.articles {
		out[a.Status]++
	}
	return out, nil
}

func (r *stubArticleRepo) StatsByAuthors(_ context.Context, ids []string) (map[string]ports.AuthorStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ports.AuthorStats)
	for _, a := range r.articles {
		st := out[a.AuthorID]
		st.Total++
		if a.IsPublished() {
			st.Published++
		} else {
			st.Drafts++
		}
		out[a.AuthorID] = st
	}
	return out, nil
}

func (r *stubArticleRepo) PublishingTrend(_ context.Context, since time.Time) ([]ports.TrendPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	days := make(map[string]int64)
	for _, a := range r.articles {
		if a.PublishedAt != nil && !a.PublishedAt.Before(since) {
			days[a.PublishedAt.Format("2006-01-02")]++
		}
	}
	out := make([]ports.TrendPoint, 0, len(days))
	for d, n := range days {
		out = append(out, ports.TrendPoint{Day: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (r *stubArticleRepo) ActiveWriters(_ context.Context, since time.Time, limit int) ([]ports.WriterActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc := make(map[string]*ports.WriterActivity)
	for _, a := range r.articles {
		if a.CreatedAt.Before(since) {
			continue
		}
		w, ok := acc[a.AuthorID]
		if !ok {
			w = &ports.WriterActivity{AuthorID: a.AuthorID}
			acc[a.AuthorID] = w
		}
		w.ArticleCount++
		if a.IsPublished() {
			w.PublishedCount++
		}
	}
	out := make([]ports.WriterActivity, 0, len(acc))
	for _, w := range acc {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArticleCount > out[j].ArticleCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubArticleRepo) PopularTags(_ context.Context, limit int) ([]ports.TagCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, a := range r.articles {
		if !a.IsPublished() {
			continue
		}
		for _, t := range a.Tags {
			counts[t]++
		}
	}
	out := make([]ports.TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, ports.TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubLikeRepo enforces the (user, article) uniqueness the store index gives.
type stubLikeRepo struct {
	mu    sync.Mutex
	likes map[[2]string]*domain.Like
}

func newStubLikeRepo() *stubLikeRepo {
	return &stubLikeRepo{likes: make(map[[2]string]*domain.Like)}
}

func (r *stubLikeRepo) Insert(_ context.Context, l *domain.Like) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]string{l.UserID, l.ArticleID}
	if _, ok := r.likes[k]; ok {
		return false, nil
	}
	c := *l
	r.likes[k] = &c
	return true, nil
}

func (r *stubLikeRepo) Remove(_ context.Context, userID, articleID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]string{userID, articleID}
	if _, ok := r.likes[k]; !ok {
		return false, nil
	}
	delete(r.likes, k)
	return true, nil
}

func (r *stubLikeRepo) Exists(_ context.Context, userID, articleID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.likes[[2]string{userID, articleID}]
	return ok, nil
}

func (r *stubLikeRepo) CountByArticle(_ context.Context, articleID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.likes {
		if k[1] == articleID {
			n++
		}
	}
	return n, nil
}

func (r *stubLikeRepo) deleteWhere(match func(k [2]string) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.likes {
		if match(k) {
			delete(r.likes, k)
			n++
		}
	}
	return n
}

func (r *stubLikeRepo) DeleteByArticle(_ context.Context, articleID string) (int64, error) {
	return r.deleteWhere(func(k [2]string) bool { return k[1] == articleID }), nil
}

func (r *stubLikeRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(k [2]string) bool { return k[0] == userID }), nil
}

type stubReviewRepo struct {
	mu      sync.Mutex
	seq     int
	reviews map[string]*domain.Review
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{reviews: make(map[string]*domain.Review)}
}

func (r *stubReviewRepo) Create(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.reviews {
		if other.UserID == rv.UserID && other.ArticleID == rv.ArticleID {
			return nil, domain.ErrReviewExists
		}
	}
	c := *rv
	r.seq++
	c.ID = fmt.Sprintf("r%d", r.seq)
	stored := c
	r.reviews[c.ID] = &stored
	return &c, nil
}

func (r *stubReviewRepo) FindByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv, ok := r.reviews[id]; ok {
		c := *rv
		return &c, nil
	}
	return nil, domain.ErrReviewNotFound
}

func (r *stubReviewRepo) ListByArticle(_ context.Context, articleID string, page, limit int) ([]*domain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Review
	for _, rv := range r.reviews {
		if rv.ArticleID == articleID {
			c := *rv
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *stubReviewRepo) AverageRating(_ context.Context, articleID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, n int
	for _, rv := range r.reviews {
		if rv.ArticleID == articleID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (r *stubReviewRepo) Update(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rv.ID]; !ok {
		return nil, domain.ErrReviewNotFound
	}
	c := *rv
	r.reviews[rv.ID] = &c
	out := c
	return &out, nil
}

func (r *stubReviewRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *stubReviewRepo) deleteWhere(match func(*domain.Review) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rv := range r.reviews {
		if match(rv) {
			delete(r.reviews, id)
			n++
		}
	}
	return n
}

func (r *stubReviewRepo) DeleteByArticle(_ context.Context, articleID string) (int64, error) {
	return r.deleteWhere(func(rv *domain.Review) bool { return rv.ArticleID == articleID }), nil
}

func (r *stubReviewRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(rv *domain.Review) bool { return rv.UserID == userID }), nil
}

type stubAnalyticsRepo struct {
	mu    sync.Mutex
	stats map[string]*domain.ArticleAnalytics
	err   error
}

func newStubAnalyticsRepo() *stubAnalyticsRepo {
	return &stubAnalyticsRepo{stats: make(map[string]*domain.ArticleAnalytics)}
}

func (r *stubAnalyticsRepo) Ensure(_ context.Context, articleID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.stats[articleID]; !ok {
		r.stats[articleID] = &domain.ArticleAnalytics{ArticleID: articleID, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

func (r *stubAnalyticsRepo) RecordView(_ context.Context, articleID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	st, ok := r.stats[articleID]
	if !ok {
		st = &domain.ArticleAnalytics{ArticleID: articleID, CreatedAt: now}
		r.stats[articleID] = st
	}
	st.Views++
	t := now
	st.LastViewed = &t
	st.UpdatedAt = now
	return nil
}

func (r *stubAnalyticsRepo) FindByArticle(_ context.Context, articleID string) (*domain.ArticleAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stats[articleID]; ok {
		c := *st
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubAnalyticsRepo) views(articleID string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stats[articleID]; ok {
		return st.Views
	}
	return 0
}

func (r *stubAnalyticsRepo) TotalViews(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, st := range r.stats {
		n += st.Views
	}
	return n, nil
}

func (r *stubAnalyticsRepo) TopByViews(_ context.Context, limit int) ([]ports.PopularArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.PopularArticle, 0, len(r.stats))
	for id, st := range r.stats {
		out = append(out, ports.PopularArticle{ArticleID: id, Views: st.Views})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubAnalyticsRepo) DeleteByArticle(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stats, articleID)
	return nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, q domain.AuditQuery) ([]*domain.AuditEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if q.Action != nil && e.Action != *q.Action {
			continue
		}
		if q.UserID != "" && (e.UserID == nil || *e.UserID != q.UserID) {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, q.Page, q.Limit), int64(len(out)), nil
}

type stubGuard struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (g *stubGuard) Acquire(_ context.Context, userID, articleID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.held == nil {
		g.held = make(map[string]bool)
	}
	k := userID + ":" + articleID
	if g.held[k] {
		return false, nil
	}
	g.held[k] = true
	return true, nil
}

func (g *stubGuard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	adminP  = domain.NewPrincipal("admin", "root", domain.RoleAdmin)
	writerP = domain.NewPrincipal("w1", "wendy", domain.RoleWriter)
	otherP  = domain.NewPrincipal("w2", "walt", domain.RoleWriter)
	readerP = domain.NewPrincipal("r1", "rita", domain.RoleReader)
)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	users     *stubUserRepo
	articles  *stubArticleRepo
	likes     *stubLikeRepo
	reviews   *stubReviewRepo
	analytics *stubAnalyticsRepo
	audits    *stubAuditRepo
}

func newFixture() *fixture {
	f := &fixture{
		users:     newStubUserRepo(),
		articles:  newStubArticleRepo(),
		likes:     newStubLikeRepo(),
		reviews:   newStubReviewRepo(),
		analytics: newStubAnalyticsRepo(),
		audits:    &stubAuditRepo{},
	}
	for _, p := range []domain.Principal{adminP, writerP, otherP, readerP} {
		f.users.users[p.UserID] = &domain.User{
			ID:       p.UserID,
			Username: p.Username,
			Email:    p.Username + "@example.com",
			Role:     p.Role,
		}
	}
	return f
}

func (f *fixture) seedArticle(id, authorID string, status domain.ArticleStatus, tags ...string) *domain.Article {
	a := &domain.Article{
		ID:        id,
		Title:     "Article " + id,
		Content:   "Body of article " + id,
		Tags:      tags,
		AuthorID:  authorID,
		Status:    status,
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
	}
	if status == domain.StatusPublished {
		p := fixedNow.Add(-time.Hour)
		a.PublishedAt = &p
	}
	f.articles.put(a)
	return a
}
