package mongo

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

const (
	collectionUsers     = "users"
	collectionArticles  = "articles"
	collectionLikes     = "likes"
	collectionReviews   = "reviews"
	collectionAnalytics = "article_analytics"
	collectionAuditLogs = "audit_logs"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Ping checks that the primary is reachable. Used by the readiness probe.
func Ping(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx, nil)
}

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func unique(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes are what make concurrent like and review inserts safe.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	all := []collectionIndexes{
		{collectionUsers, []mongo.IndexModel{
			unique(bson.D{{Key: "username", Value: 1}}),
			unique(bson.D{{Key: "email", Value: 1}}),
			{Keys: bson.D{{Key: "role", Value: 1}}},
		}},
		{collectionArticles, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		}},
		{collectionLikes, []mongo.IndexModel{
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "article_id", Value: 1}}),
			{Keys: bson.D{{Key: "article_id", Value: 1}}},
		}},
		{collectionReviews, []mongo.IndexModel{
			unique(bson.D{{Key: "user_id", Value: 1}, {Key: "article_id", Value: 1}}),
			{Keys: bson.D{{Key: "article_id", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{collectionAnalytics, []mongo.IndexModel{
			unique(bson.D{{Key: "article_id", Value: 1}}),
			{Keys: bson.D{{Key: "views", Value: -1}}},
		}},
		{collectionAuditLogs, []mongo.IndexModel{
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		}},
	}

	for _, ci := range all {
		if _, err := db.Collection(ci.collection).Indexes().CreateMany(ctx, ci.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", ci.collection, err)
		}
	}
	return nil
}

// objectID parses a hex id. A malformed id can never match a document, so
// callers treat !ok as not found.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

// pageOptions applies skip/limit for a 1-based page. A skip that would
// overflow is pinned to math.MaxInt64, which yields an empty page.
func pageOptions(page, limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
		if page > 1 {
			skip := int64(math.MaxInt64)
			if n := int64(page - 1); n <= math.MaxInt64/int64(limit) {
				skip = n * int64(limit)
			}
			opts.SetSkip(skip)
		}
	}
	return opts
}

// ptrTime returns nil for the zero time so optional timestamps stay null.
func ptrTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
