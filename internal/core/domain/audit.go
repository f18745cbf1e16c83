package domain

import (
	"fmt"
	"time"
)

// AuditAction is the closed set of audited operations.
type AuditAction string

const (
	ActionCreateArticle  AuditAction = "CREATE_ARTICLE"
	ActionEditArticle    AuditAction = "EDIT_ARTICLE"
	ActionPublishArticle AuditAction = "PUBLISH_ARTICLE"
	ActionDeleteArticle  AuditAction = "DELETE_ARTICLE"
	ActionLogin          AuditAction = "LOGIN"
	ActionRegister       AuditAction = "REGISTER"
	ActionUserUpdated    AuditAction = "USER_UPDATED"
	ActionUserDeleted    AuditAction = "USER_DELETED"
	ActionLikeArticle    AuditAction = "LIKE_ARTICLE"
	ActionUnlikeArticle  AuditAction = "UNLIKE_ARTICLE"
	ActionCreateReview   AuditAction = "CREATE_REVIEW"
	ActionUpdateReview   AuditAction = "UPDATE_REVIEW"
	ActionDeleteReview   AuditAction = "DELETE_REVIEW"
)

// ParseAuditAction rejects names outside the closed set.
func ParseAuditAction(s string) (AuditAction, error) {
	a := AuditAction(s)
	if _, ok := auditResource[a]; !ok {
		return "", NewValidationError("action", "unknown audit action")
	}
	return a, nil
}

// ResourceType identifies the kind of resource an audit entry refers to.
type ResourceType string

const (
	ResourceArticle ResourceType = "ARTICLE"
	ResourceUser    ResourceType = "USER"
	ResourceReview  ResourceType = "REVIEW"
)

var auditResource = map[AuditAction]ResourceType{
	ActionCreateArticle:  ResourceArticle,
	ActionEditArticle:    ResourceArticle,
	ActionPublishArticle: ResourceArticle,
	ActionDeleteArticle:  ResourceArticle,
	ActionLikeArticle:    ResourceArticle,
	ActionUnlikeArticle:  ResourceArticle,
	ActionLogin:          ResourceUser,
	ActionRegister:       ResourceUser,
	ActionUserUpdated:    ResourceUser,
	ActionUserDeleted:    ResourceUser,
	ActionCreateReview:   ResourceReview,
	ActionUpdateReview:   ResourceReview,
	ActionDeleteReview:   ResourceReview,
}

// Resource returns the resource type an action applies to.
func (a AuditAction) Resource() ResourceType { return auditResource[a] }

// AuditDetails is the per-action payload of an audit entry. Each concrete type
// belongs to exactly one action.
type AuditDetails interface {
	AuditAction() AuditAction
}

type ArticleCreatedDetails struct {
	Title  string        `json:"title" bson:"title"`
	Status ArticleStatus `json:"status" bson:"status"`
	Tags   []string      `json:"tags" bson:"tags"`
}

type ArticleEditedDetails struct {
	UpdatedFields []string      `json:"updated_fields" bson:"updated_fields"`
	FromStatus    ArticleStatus `json:"from_status" bson:"from_status"`
	ToStatus      ArticleStatus `json:"to_status" bson:"to_status"`
}

type ArticlePublishedDetails struct {
	Title       string    `json:"title" bson:"title"`
	PublishedAt time.Time `json:"published_at" bson:"published_at"`
}

type ArticleDeletedDetails struct {
	Title          string `json:"title" bson:"title"`
	AuthorID       string `json:"author_id" bson:"author_id"`
	LikesRemoved   int64  `json:"likes_removed" bson:"likes_removed"`
	ReviewsRemoved int64  `json:"reviews_removed" bson:"reviews_removed"`
}

// LoginDetails never carries the submitted credentials.
type LoginDetails struct {
	Username string `json:"username" bson:"username"`
}

type RegisterDetails struct {
	Username string `json:"username" bson:"username"`
	Role     Role   `json:"role" bson:"role"`
}

type UserUpdatedDetails struct {
	TargetUserID  string   `json:"target_user_id" bson:"target_user_id"`
	UpdatedFields []string `json:"updated_fields" bson:"updated_fields"`
}

type UserDeletedDetails struct {
	TargetUserID    string `json:"target_user_id" bson:"target_user_id"`
	Username        string `json:"username" bson:"username"`
	Role            Role   `json:"role" bson:"role"`
	ArticlesDeleted int64  `json:"articles_deleted" bson:"articles_deleted"`
}

type LikeDetails struct {
	LikeCount int64 `json:"like_count" bson:"like_count"`
}

type UnlikeDetails struct {
	LikeCount int64 `json:"like_count" bson:"like_count"`
}

type ReviewCreatedDetails struct {
	ArticleID string `json:"article_id" bson:"article_id"`
	Rating    int    `json:"rating" bson:"rating"`
}

type ReviewUpdatedDetails struct {
	ArticleID     string   `json:"article_id" bson:"article_id"`
	UpdatedFields []string `json:"updated_fields" bson:"updated_fields"`
}

type ReviewDeletedDetails struct {
	ArticleID string `json:"article_id" bson:"article_id"`
	ByAdmin   bool   `json:"by_admin" bson:"by_admin"`
}

func (ArticleCreatedDetails) AuditAction() AuditAction   { return ActionCreateArticle }
func (ArticleEditedDetails) AuditAction() AuditAction    { return ActionEditArticle }
func (ArticlePublishedDetails) AuditAction() AuditAction { return ActionPublishArticle }
func (ArticleDeletedDetails) AuditAction() AuditAction   { return ActionDeleteArticle }
func (LoginDetails) AuditAction() AuditAction            { return ActionLogin }
func (RegisterDetails) AuditAction() AuditAction         { return ActionRegister }
func (UserUpdatedDetails) AuditAction() AuditAction      { return ActionUserUpdated }
func (UserDeletedDetails) AuditAction() AuditAction      { return ActionUserDeleted }
func (LikeDetails) AuditAction() AuditAction             { return ActionLikeArticle }
func (UnlikeDetails) AuditAction() AuditAction           { return ActionUnlikeArticle }
func (ReviewCreatedDetails) AuditAction() AuditAction    { return ActionCreateReview }
func (ReviewUpdatedDetails) AuditAction() AuditAction    { return ActionUpdateReview }
func (ReviewDeletedDetails) AuditAction() AuditAction    { return ActionDeleteReview }

// NewAuditDetails returns an empty payload of the concrete type for action,
// used by storage adapters to decode the details sub-document.
func NewAuditDetails(action AuditAction) (AuditDetails, error) {
	switch action {
	case ActionCreateArticle:
		return &ArticleCreatedDetails{}, nil
	case ActionEditArticle:
		return &ArticleEditedDetails{}, nil
	case ActionPublishArticle:
		return &ArticlePublishedDetails{}, nil
	case ActionDeleteArticle:
		return &ArticleDeletedDetails{}, nil
	case ActionLogin:
		return &LoginDetails{}, nil
	case ActionRegister:
		return &RegisterDetails{}, nil
	case ActionUserUpdated:
		return &UserUpdatedDetails{}, nil
	case ActionUserDeleted:
		return &UserDeletedDetails{}, nil
	case ActionLikeArticle:
		return &LikeDetails{}, nil
	case ActionUnlikeArticle:
		return &UnlikeDetails{}, nil
	case ActionCreateReview:
		return &ReviewCreatedDetails{}, nil
	case ActionUpdateReview:
		return &ReviewUpdatedDetails{}, nil
	case ActionDeleteReview:
		return &ReviewDeletedDetails{}, nil
	default:
		return nil, fmt.Errorf("audit: no details type for action %q", action)
	}
}

// RequestMeta describes the HTTP request that caused an audited action.
type RequestMeta struct {
	Method    string
	Path      string
	IPAddress string
	UserAgent string
}

// AuditEntry is an immutable record of a state-changing action.
type AuditEntry struct {
	ID           string       `json:"id"`
	UserID       *string      `json:"user_id"`
	Action       AuditAction  `json:"action"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Details      AuditDetails `json:"details"`
	Method       string       `json:"method,omitempty"`
	Path         string       `json:"path,omitempty"`
	IPAddress    string       `json:"ip_address,omitempty"`
	UserAgent    string       `json:"user_agent,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// NewAuditEntry assembles an entry. The action and resource type are derived
// from details so they can never disagree. An empty userID yields a nil UserID.
func NewAuditEntry(userID, resourceID string, details AuditDetails, meta RequestMeta, now time.Time) *AuditEntry {
	action := details.AuditAction()
	e := &AuditEntry{
		Action:       action,
		ResourceType: action.Resource(),
		ResourceID:   resourceID,
		Details:      details,
		Method:       meta.Method,
		Path:         meta.Path,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Timestamp:    now.UTC(),
	}
	if userID != "" {
		id := userID
		e.UserID = &id
	}
	return e
}

// AuditQuery filters the audit log listing.
type AuditQuery struct {
	Action *AuditAction
	UserID string
	Page   int
	Limit  int
}
