package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/techpress/publishing-api/internal/core/domain"
)

// AuditRepository is the append-only audit_logs collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(collectionAuditLogs)}
}

type mongoAuditEntry struct {
	ID           string    `bson:"_id"`
	UserID       *string   `bson:"user_id"`
	Action       string    `bson:"action"`
	ResourceType string    `bson:"resource_type"`
	ResourceID   string    `bson:"resource_id,omitempty"`
	Details      bson.Raw  `bson:"details,omitempty"`
	Method       string    `bson:"method,omitempty"`
	Path         string    `bson:"path,omitempty"`
	IPAddress    string    `bson:"ip_address,omitempty"`
	UserAgent    string    `bson:"user_agent,omitempty"`
	Timestamp    time.Time `bson:"timestamp"`
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAuditEntry{
		ID:           e.ID,
		UserID:       e.UserID,
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
		raw, err := bson.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		doc.Details = raw
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, q domain.AuditQuery) ([]*domain.AuditEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if q.Action != nil {
		filter["action"] = string(*q.Action)
	}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	opts := pageOptions(q.Page, q.Limit).SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	var docs []mongoAuditEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode audit entries: %w", err)
	}

	out := make([]*domain.AuditEntry, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (d *mongoAuditEntry) toDomain() *domain.AuditEntry {
	e := &domain.AuditEntry{
		ID:           d.ID,
		UserID:       d.UserID,
		Action:       domain.AuditAction(d.Action),
		ResourceType: domain.ResourceType(d.ResourceType),
		ResourceID:   d.ResourceID,
		Method:       d.Method,
		Path:         d.Path,
		IPAddress:    d.IPAddress,
		UserAgent:    d.UserAgent,
		Timestamp:    d.Timestamp.UTC(),
	}
	e.Details = decodeDetails(e.Action, d.Details)
	return e
}

// decodeDetails restores the concrete payload type for action. Unknown actions
// or undecodable payloads yield nil details rather than failing the listing.
func decodeDetails(action domain.AuditAction, raw bson.Raw) domain.AuditDetails {
	if len(raw) == 0 {
		return nil
	}
	target, err := domain.NewAuditDetails(action)
	if err != nil {
		return nil
	}
	if err := bson.Unmarshal(raw, target); err != nil {
		return nil
	}
	return target
}
