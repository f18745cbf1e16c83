package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// ParseArticleStatus converts s to an ArticleStatus. Only draft and published
// exist.
func ParseArticleStatus(s string) (ArticleStatus, error) {
	switch ArticleStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	default:
		return "", NewValidationError("status", fmt.Sprintf("must be one of: %s, %s", StatusDraft, StatusPublished))
	}
}

const (
	TitleMinLen   = 5
	TitleMaxLen   = 200
	ContentMinLen = 10
	MaxTags       = 10
	TagMaxLen     = 30
)

// Article is the core aggregate root.
type Article struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Tags        []string      `json:"tags"`
	AuthorID    string        `json:"author_id"`
	Status      ArticleStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (a *Article) IsPublished() bool { return a.Status == StatusPublished }

// Clone returns a deep copy so policy functions never mutate the caller's value.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

// ArticleRevision identifies the stored state an edit was computed from.
// A conditional write only applies while the stored article still matches it.
type ArticleRevision struct {
	Status    ArticleStatus
	UpdatedAt time.Time
}

func (a *Article) Revision() ArticleRevision {
	return ArticleRevision{Status: a.Status, UpdatedAt: a.UpdatedAt}
}

// ArticlePatch is a partial update. A nil field leaves the value unchanged.
type ArticlePatch struct {
	Title   *string
	Content *string
	Tags    *[]string
	Status  *string
}

// Fields returns the names of the fields present in the patch.
func (p ArticlePatch) Fields() []string {
	var out []string
	if p.Title != nil {
		out = append(out, "title")
	}
	if p.Content != nil {
		out = append(out, "content")
	}
	if p.Tags != nil {
		out = append(out, "tags")
	}
	if p.Status != nil {
		out = append(out, "status")
	}
	return out
}

// NormalizeTitle trims surrounding whitespace and enforces length bounds.
func NormalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	n := len([]rune(t))
	if n < TitleMinLen || n > TitleMaxLen {
		return "", NewValidationError("title", fmt.Sprintf("must be between %d and %d characters", TitleMinLen, TitleMaxLen))
	}
	return t, nil
}

// NormalizeContent trims surrounding whitespace and enforces the minimum length.
func NormalizeContent(content string) (string, error) {
	c := strings.TrimSpace(content)
	if len([]rune(c)) < ContentMinLen {
		return "", NewValidationError("content", fmt.Sprintf("must be at least %d characters", ContentMinLen))
	}
	return c, nil
}

// NormalizeTags trims each tag, drops empties and duplicates, and enforces
// the count and length limits. Order of first occurrence is preserved.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if len([]rune(t)) > TagMaxLen {
			return nil, NewValidationError("tags", fmt.Sprintf("each tag must be at most %d characters", TagMaxLen))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, NewValidationError("tags", fmt.Sprintf("maximum %d tags allowed", MaxTags))
	}
	return out, nil
}

// Visibility selects which articles a listing may return.
type Visibility int

const (
	// VisibilityPublished: status == published.
	VisibilityPublished Visibility = iota
	// VisibilityPublishedOrOwnDrafts: published, or draft authored by OwnerID.
	VisibilityPublishedOrOwnDrafts
	// VisibilityAll: no status or author restriction.
	VisibilityAll
)

// ArticleScope is the query predicate derived from a principal.
type ArticleScope struct {
	Visibility Visibility
	OwnerID    string
}

// ArticleSort names a listing order.
type ArticleSort string

const (
	SortNewest ArticleSort = "newest"
	SortOldest ArticleSort = "oldest"
	SortTitle  ArticleSort = "title"
	// SortStatus orders by status asc, publishedAt desc, createdAt desc.
	SortStatus ArticleSort = "status"
	// SortCreated orders by createdAt desc.
	SortCreated ArticleSort = "created"
)

// ParseArticleSort maps a client supplied sort name, defaulting to newest.
func ParseArticleSort(s string) ArticleSort {
	switch ArticleSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortTitle:
		return SortTitle
	default:
		return SortNewest
	}
}

// ArticleQuery carries all parameters for listing articles.
type ArticleQuery struct {
	Scope    ArticleScope
	AuthorID string   // optional: restrict to one author
	Search   string   // optional: case-insensitive match on title or content
	Tags     []string // optional: any-of
	Sort     ArticleSort
	Page     int // 1-based
	Limit    int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// MaxPage caps client supplied page numbers so skip offsets stay small.
// Pages past the data are simply empty.
const MaxPage = 1_000_000

// NormalizePage clamps page and limit to sane bounds.
func NormalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

// TotalPages returns ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
