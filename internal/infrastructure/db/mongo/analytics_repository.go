package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

// AnalyticsRepository stores one aggregate document per article.
type AnalyticsRepository struct {
	coll *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{coll: db.Collection(collectionAnalytics)}
}

type mongoAnalytics struct {
	ArticleID       string     `bson:"article_id"`
	Views           int64      `bson:"views"`
	UniqueViews     int64      `bson:"unique_views"`
	TotalReadTime   int64      `bson:"total_read_time"`
	AverageReadTime float64    `bson:"average_read_time"`
	LastViewed      *time.Time `bson:"last_viewed"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func (ma *mongoAnalytics) toDomain() *domain.ArticleAnalytics {
	a := &domain.ArticleAnalytics{
		ArticleID:       ma.ArticleID,
		Views:           ma.Views,
		UniqueViews:     ma.UniqueViews,
		TotalReadTime:   ma.TotalReadTime,
		AverageReadTime: ma.AverageReadTime,
		CreatedAt:       ma.CreatedAt.UTC(),
		UpdatedAt:       ma.UpdatedAt.UTC(),
	}
	if ma.LastViewed != nil {
		a.LastViewed = ptrTime(*ma.LastViewed)
	}
	return a
}

// upsert runs an upsert and retries once on a duplicate key, which two racing
// upserts against the unique article_id index can produce.
func (r *AnalyticsRepository) upsert(ctx context.Context, articleID string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"article_id": articleID}
	opts := options.Update().SetUpsert(true)

	_, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.coll.UpdateOne(ctx, filter, update, opts)
	}
	return err
}

func (r *AnalyticsRepository) Ensure(ctx context.Context, articleID string, now time.Time) error {
	now = now.UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"views":             int64(0),
		"unique_views":      int64(0),
		"total_read_time":   int64(0),
		"average_read_time": 0.0,
		"last_viewed":       nil,
		"created_at":        now,
		"updated_at":        now,
	}}
	if err := r.upsert(ctx, articleID, update); err != nil {
		return fmt.Errorf("ensure analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) RecordView(ctx context.Context, articleID string, now time.Time) error {
	now = now.UTC()
	update := bson.M{
		"$inc": bson.M{"views": int64(1)},
		"$set": bson.M{"last_viewed": now, "updated_at": now},
		"$setOnInsert": bson.M{
			"unique_views":      int64(0),
			"total_read_time":   int64(0),
			"average_read_time": 0.0,
			"created_at":        now,
		},
	}
	if err := r.upsert(ctx, articleID, update); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) FindByArticle(ctx context.Context, articleID string) (*domain.ArticleAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAnalytics
	if err := r.coll.FindOne(ctx, bson.M{"article_id": articleID}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find analytics: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *AnalyticsRepository) TotalViews(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$views"}}}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("total views: %w", err)
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode total views: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *AnalyticsRepository) TopByViews(ctx context.Context, limit int) ([]ports.PopularArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "views", Value: -1}, {Key: "article_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"article_id": 1, "views": 1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("top articles: %w", err)
	}
	var docs []mongoAnalytics
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode top articles: %w", err)
	}

	out := make([]ports.PopularArticle, 0, len(docs))
	for _, d := range docs {
		out = append(out, ports.PopularArticle{ArticleID: d.ArticleID, Views: d.Views})
	}
	return out, nil
}

func (r *AnalyticsRepository) DeleteByArticle(ctx context.Context, articleID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"article_id": articleID}); err != nil {
		return fmt.Errorf("delete analytics: %w", err)
	}
	return nil
}
