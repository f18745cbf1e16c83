// Package policy holds the pure decision rules for who may see and change
// articles, users and reviews. Functions here never touch storage or the clock;
// callers pass the current time in.
package policy

import (
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// Transition describes what an article mutation did to the publication state.
type Transition struct {
	From domain.ArticleStatus
	To   domain.ArticleStatus
	// Changed is false when the mutation left the article untouched.
	Changed bool
	// Fields lists the article fields that actually changed.
	Fields []string
}

// Published reports whether the article entered the published state.
func (t Transition) Published() bool {
	return t.From != domain.StatusPublished && t.To == domain.StatusPublished
}

// Unpublished reports whether the article left the published state.
func (t Transition) Unpublished() bool {
	return t.From == domain.StatusPublished && t.To != domain.StatusPublished
}

// CanView reports whether p may read a.
func CanView(p domain.Principal, a *domain.Article) bool {
	if a == nil {
		return false
	}
	if a.Status == domain.StatusPublished {
		return true
	}
	switch p.Role {
	case domain.RoleAdmin:
		return p.Authenticated()
	case domain.RoleWriter, domain.RoleReader:
		return p.Is(a.AuthorID)
	default:
		return false
	}
}

// View returns ErrArticleNotFound when p may not read a. Hidden articles are
// indistinguishable from missing ones.
func View(p domain.Principal, a *domain.Article) error {
	if !CanView(p, a) {
		return domain.ErrArticleNotFound
	}
	return nil
}

// ListScope returns the listing predicate for p.
func ListScope(p domain.Principal) domain.ArticleScope {
	if !p.Authenticated() {
		return domain.ArticleScope{Visibility: domain.VisibilityPublished}
	}
	switch p.Role {
	case domain.RoleAdmin:
		return domain.ArticleScope{Visibility: domain.VisibilityAll}
	case domain.RoleWriter:
		return domain.ArticleScope{Visibility: domain.VisibilityPublishedOrOwnDrafts, OwnerID: p.UserID}
	case domain.RoleReader:
		return domain.ArticleScope{Visibility: domain.VisibilityPublished}
	default:
		return domain.ArticleScope{Visibility: domain.VisibilityPublished}
	}
}

// RequireAdmin guards admin-only listings and actions.
func RequireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return domain.ErrAdminOnly
	}
	return nil
}

// CanAuthor reports whether p may create articles and list its own.
func CanAuthor(p domain.Principal) bool {
	if !p.Authenticated() {
		return false
	}
	switch p.Role {
	case domain.RoleAdmin, domain.RoleWriter:
		return true
	case domain.RoleReader:
		return false
	default:
		return false
	}
}

// InitialStatus resolves the status of a new article. Everything starts as a
// draft; only an admin may ask for published.
func InitialStatus(p domain.Principal, requested string) (domain.ArticleStatus, error) {
	if !CanAuthor(p) {
		return "", domain.ErrForbidden
	}
	if requested == "" {
		return domain.StatusDraft, nil
	}
	status, err := domain.ParseArticleStatus(requested)
	if err != nil {
		return "", err
	}
	if status == domain.StatusPublished && p.Role != domain.RoleAdmin {
		return "", domain.ErrWriterCannotPublish
	}
	return status, nil
}

// NewArticle validates input and builds a new article owned by p.
func NewArticle(p domain.Principal, title, content string, tags []string, requestedStatus string, now time.Time) (*domain.Article, error) {
	status, err := InitialStatus(p, requestedStatus)
	if err != nil {
		return nil, err
	}
	t, err := domain.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	c, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	tg, err := domain.NormalizeTags(tags)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	a := &domain.Article{
		Title:     t,
		Content:   c,
		Tags:      tg,
		AuthorID:  p.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == domain.StatusPublished {
		a.PublishedAt = &now
	}
	return a, nil
}

// CanEdit reports whether p may change a. A writer loses edit rights for good
// once the article is published.
func CanEdit(p domain.Principal, a *domain.Article) bool {
	return authorizeEdit(p, a) == nil
}

func authorizeEdit(p domain.Principal, a *domain.Article) error {
	if a == nil {
		return domain.ErrArticleNotFound
	}
	if !p.Authenticated() {
		return domain.ErrForbidden
	}
	switch p.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleWriter:
		if !p.Is(a.AuthorID) {
			return domain.ErrNotArticleOwner
		}
		if a.Status == domain.StatusPublished {
			return domain.ErrArticlePublished
		}
		return nil
	case domain.RoleReader:
		return domain.ErrForbidden
	default:
		return domain.ErrForbidden
	}
}

// ApplyEdit applies patch to a copy of a on behalf of p. Empty strings in the
// patch count as omitted. The returned article satisfies
// PublishedAt != nil iff Status == published.
func ApplyEdit(p domain.Principal, a *domain.Article, patch domain.ArticlePatch, now time.Time) (*domain.Article, Transition, error) {
	if err := authorizeEdit(p, a); err != nil {
		return nil, Transition{}, err
	}

	out := a.Clone()
	tr := Transition{From: a.Status, To: a.Status}

	if patch.Title != nil && *patch.Title != "" {
		t, err := domain.NormalizeTitle(*patch.Title)
		if err != nil {
			return nil, Transition{}, err
		}
		if t != out.Title {
			out.Title = t
			tr.Fields = append(tr.Fields, "title")
		}
	}
	if patch.Content != nil && *patch.Content != "" {
		c, err := domain.NormalizeContent(*patch.Content)
		if err != nil {
			return nil, Transition{}, err
		}
		if c != out.Content {
			out.Content = c
			tr.Fields = append(tr.Fields, "content")
		}
	}
	if patch.Tags != nil {
		tg, err := domain.NormalizeTags(*patch.Tags)
		if err != nil {
			return nil, Transition{}, err
		}
		if !equalTags(tg, out.Tags) {
			out.Tags = tg
			tr.Fields = append(tr.Fields, "tags")
		}
	}
	if patch.Status != nil && *patch.Status != "" {
		next, err := domain.ParseArticleStatus(*patch.Status)
		if err != nil {
			return nil, Transition{}, err
		}
		if next == domain.StatusPublished && p.Role != domain.RoleAdmin {
			return nil, Transition{}, domain.ErrWriterCannotPublish
		}
		if next != out.Status {
			setStatus(out, next, now)
			tr.To = next
			tr.Fields = append(tr.Fields, "status")
		}
	}

	tr.Changed = len(tr.Fields) > 0
	if tr.Changed {
		out.UpdatedAt = now.UTC()
	}
	return out, tr, nil
}

// CanDelete reports whether p may delete a.
func CanDelete(p domain.Principal, a *domain.Article) bool {
	return a != nil && p.IsAdmin()
}

// Delete returns nil when p may delete a.
func Delete(p domain.Principal, a *domain.Article) error {
	if a == nil {
		return domain.ErrArticleNotFound
	}
	if !CanDelete(p, a) {
		return domain.ErrAdminOnly
	}
	return nil
}

// CanPublish reports whether p may publish a.
func CanPublish(p domain.Principal, a *domain.Article) bool {
	return a != nil && p.IsAdmin()
}

// Publish moves a copy of a to published. Publishing an article that is
// already published changes nothing, publishedAt included.
func Publish(p domain.Principal, a *domain.Article, now time.Time) (*domain.Article, Transition, error) {
	if a == nil {
		return nil, Transition{}, domain.ErrArticleNotFound
	}
	if !CanPublish(p, a) {
		return nil, Transition{}, domain.ErrAdminOnly
	}

	out := a.Clone()
	tr := Transition{From: a.Status, To: domain.StatusPublished}
	if a.Status == domain.StatusPublished {
		return out, tr, nil
	}
	setStatus(out, domain.StatusPublished, now)
	out.UpdatedAt = now.UTC()
	tr.Changed = true
	tr.Fields = []string{"status"}
	return out, tr, nil
}

func setStatus(a *domain.Article, next domain.ArticleStatus, now time.Time) {
	a.Status = next
	switch next {
	case domain.StatusPublished:
		t := now.UTC()
		a.PublishedAt = &t
	case domain.StatusDraft:
		a.PublishedAt = nil
	}
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
