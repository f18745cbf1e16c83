package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/policy"
	"github.com/techpress/publishing-api/internal/core/ports"
)

var articleTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func draftArticle(id, authorID string) *domain.Article {
	return &domain.Article{
		ID:        id,
		Title:     "Context cancellation",
		Content:   "Always pass ctx as the first argument.",
		Tags:      []string{"go"},
		AuthorID:  authorID,
		Status:    domain.StatusDraft,
		CreatedAt: articleTime,
		UpdatedAt: articleTime,
	}
}

func TestArticleHandler_Create(t *testing.T) {
	audit := &recordingAudit{}
	stub := &stubArticleService{
		createFn: func(ctx context.Context, p domain.Principal, in ports.CreateArticleInput) (*domain.Article, error) {
			if p != writerP {
				t.Fatalf("unexpected principal %+v", p)
			}
			if in.Title != "Context cancellation" || !reflect.DeepEqual(in.Tags, []string{"go"}) {
				t.Fatalf("unexpected input %+v", in)
			}
			return draftArticle("a1", p.UserID), nil
		},
	}
	handler := NewArticleHandler(stub, audit)

	body := strings.NewReader(`{"title":"Context cancellation","content":"Always pass ctx as the first argument.","tags":["go"]}`)
	c, rec := newContext(http.MethodPost, "/api/articles", body, &writerP)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp articleEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Article.ID != "a1" || resp.Article.Author.Username != "wendy" || resp.Article.Status != "draft" {
		t.Fatalf("unexpected article payload: %+v", resp.Article)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	if d, ok := audit.entries[0].details.(domain.ArticleCreatedDetails); !ok || d.Status != domain.StatusDraft {
		t.Fatalf("unexpected details %#v", audit.entries[0].details)
	}
}

func TestArticleHandler_Create_WriterPublishForbidden(t *testing.T) {
	audit := &recordingAudit{}
	stub := &stubArticleService{
		createFn: func(ctx context.Context, p domain.Principal, in ports.CreateArticleInput) (*domain.Article, error) {
			return nil, domain.ErrWriterCannotPublish
		},
	}
	handler := NewArticleHandler(stub, audit)

	body := strings.NewReader(`{"title":"Context cancellation","content":"Always pass ctx first.","status":"published"}`)
	c, _ := newContext(http.MethodPost, "/api/articles", body, &writerP)

	if err := handler.Create(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("rejected create must not be audited")
	}
}

func TestArticleHandler_Update_AuditsOnlyRealChanges(t *testing.T) {
	cases := []struct {
		name       string
		transition policy.Transition
		wantAudit  bool
	}{
		{"no-op", policy.Transition{From: domain.StatusDraft, To: domain.StatusDraft}, false},
		{"title change", policy.Transition{From: domain.StatusDraft, To: domain.StatusDraft, Changed: true, Fields: []string{"title"}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit := &recordingAudit{}
			stub := &stubArticleService{
				updateFn: func(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error) {
					if id != "a1" || patch.Title == nil || *patch.Title != "New title here" {
						t.Fatalf("unexpected update call %s %+v", id, patch)
					}
					if patch.Content != nil || patch.Tags != nil || patch.Status != nil {
						t.Fatalf("absent fields must stay nil: %+v", patch)
					}
					return draftArticle(id, p.UserID), tc.transition, nil
				},
			}
			handler := NewArticleHandler(stub, audit)

			c, rec := newContext(http.MethodPut, "/api/articles/a1", strings.NewReader(`{"title":"New title here"}`), &writerP)
			c.SetParamNames("id")
			c.SetParamValues("a1")

			if err := handler.Update(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := len(audit.entries) == 1; got != tc.wantAudit {
				t.Fatalf("audit recorded=%v, want %v", got, tc.wantAudit)
			}
			if tc.wantAudit {
				d := audit.entries[0].details.(domain.ArticleEditedDetails)
				if !reflect.DeepEqual(d.UpdatedFields, []string{"title"}) {
					t.Fatalf("unexpected fields %v", d.UpdatedFields)
				}
			}
		})
	}
}

func TestArticleHandler_Update_PublishedByWriter(t *testing.T) {
	stub := &stubArticleService{
		updateFn: func(ctx context.Context, p domain.Principal, id string, patch domain.ArticlePatch) (*domain.Article, policy.Transition, error) {
			return nil, policy.Transition{}, domain.ErrArticlePublished
		},
	}
	handler := NewArticleHandler(stub, &recordingAudit{})

	c, _ := newContext(http.MethodPut, "/api/articles/a1", strings.NewReader(`{"content":"Rewritten body text"}`), &writerP)
	c.SetParamNames("id")
	c.SetParamValues("a1")

	if err := handler.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestArticleHandler_Publish_Idempotent(t *testing.T) {
	published := draftArticle("a1", "writer-1")
	published.Status = domain.StatusPublished
	published.PublishedAt = &articleTime

	calls := 0
	audit := &recordingAudit{}
	stub := &stubArticleService{
		publishFn: func(ctx context.Context, p domain.Principal, id string) (*domain.Article, policy.Transition, error) {
			calls++
			tr := policy.Transition{From: domain.StatusPublished, To: domain.StatusPublished}
			if calls == 1 {
				tr = policy.Transition{From: domain.StatusDraft, To: domain.StatusPublished, Changed: true, Fields: []string{"status"}}
			}
			return published, tr, nil
		},
	}
	handler := NewArticleHandler(stub, audit)

	for i := 0; i < 2; i++ {
		c, rec := newContext(http.MethodPatch, "/api/articles/a1/publish", nil, &adminP)
		c.SetParamNames("id")
		c.SetParamValues("a1")
		if err := handler.Publish(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected exactly one publish audit, got %d", len(audit.entries))
	}
	d, ok := audit.entries[0].details.(domain.ArticlePublishedDetails)
	if !ok || !d.PublishedAt.Equal(articleTime) {
		t.Fatalf("unexpected details %#v", audit.entries[0].details)
	}
}

func TestArticleHandler_Get_HiddenIsNotFound(t *testing.T) {
	stub := &stubArticleService{
		getFn: func(ctx context.Context, p domain.Principal, id string) (*ports.ArticleView, error) {
			if p.Authenticated() {
				t.Fatalf("expected anonymous principal")
			}
			return nil, domain.ErrArticleNotFound
		},
	}
	handler := NewArticleHandler(stub, &recordingAudit{})

	c, _ := newContext(http.MethodGet, "/api/articles/a1", nil, nil)
	c.SetParamNames("id")
	c.SetParamValues("a1")

	if err := handler.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArticleHandler_List_ParsesQuery(t *testing.T) {
	stub := &stubArticleService{
		listFn: func(ctx context.Context, p domain.Principal, in ports.ListArticlesInput) (*ports.ArticlePage, error) {
			want := ports.ListArticlesInput{
				Search: "generics",
				Tags:   []string{"go", "types"},
				Author: "wendy",
				SortBy: "oldest",
				Page:   2,
				Limit:  5,
			}
			if !reflect.DeepEqual(in, want) {
				t.Fatalf("unexpected input %+v", in)
			}
			return &ports.ArticlePage{
				Items: []ports.ArticleView{{Article: draftArticle("a1", "writer-1"), AuthorUsername: "wendy"}},
				Total: 6, Page: 2, Limit: 5, TotalPages: 2,
			}, nil
		},
	}
	handler := NewArticleHandler(stub, &recordingAudit{})

	c, rec := newContext(http.MethodGet, "/api/articles?search=generics&tags=go,+types,&author=wendy&sortBy=oldest&page=2&limit=5", nil, nil)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp articleListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Articles) != 1 || resp.Pagination.TotalPages != 2 || resp.Pagination.Total != 6 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestArticleHandler_Delete_AuditsCascade(t *testing.T) {
	audit := &recordingAudit{}
	stub := &stubArticleService{
		deleteFn: func(ctx context.Context, p domain.Principal, id string) (*ports.DeleteArticleResult, error) {
			return &ports.DeleteArticleResult{Article: draftArticle(id, "writer-1"), LikesRemoved: 3, ReviewsRemoved: 2}, nil
		},
	}
	handler := NewArticleHandler(stub, audit)

	c, rec := newContext(http.MethodDelete, "/api/articles/a1", nil, &adminP)
	c.SetParamNames("id")
	c.SetParamValues("a1")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"likesRemoved":3`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	d, ok := audit.entries[0].details.(domain.ArticleDeletedDetails)
	if !ok || d.AuthorID != "writer-1" || d.ReviewsRemoved != 2 {
		t.Fatalf("unexpected details %#v", audit.entries[0].details)
	}
	if audit.entries[0].actorID != "admin-1" || audit.entries[0].resourceID != "a1" {
		t.Fatalf("unexpected audit ids %+v", audit.entries[0])
	}
}

func TestSplitTags(t *testing.T) {
	if got := splitTags(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := splitTags(" go , ,db "); !reflect.DeepEqual(got, []string{"go", "db"}) {
		t.Fatalf("unexpected tags %v", got)
	}
}
