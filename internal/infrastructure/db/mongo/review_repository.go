package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techpress/publishing-api/internal/core/domain"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(collectionReviews)}
}

type mongoReview struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ArticleID string             `bson:"article_id"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (mr *mongoReview) toDomain() *domain.Review {
	return &domain.Review{
		ID:        mr.ID.Hex(),
		UserID:    mr.UserID,
		ArticleID: mr.ArticleID,
		Rating:    mr.Rating,
		Comment:   mr.Comment,
		CreatedAt: mr.CreatedAt.UTC(),
		UpdatedAt: mr.UpdatedAt.UTC(),
	}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoReview{
		ID:        primitive.NewObjectID(),
		UserID:    rv.UserID,
		ArticleID: rv.ArticleID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt.UTC(),
		UpdatedAt: rv.UpdatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrReviewExists
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	out := doc.toDomain()
	out.Username = rv.Username
	return out, nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mr mongoReview
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *ReviewRepository) ListByArticle(ctx context.Context, articleID string, page, limit int) ([]*domain.Review, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"article_id": articleID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	opts := pageOptions(page, limit).SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}

	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, articleID string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "article_id", Value: articleID}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode average rating: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	oid, ok := objectID(rv.ID)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"rating":     rv.Rating,
		"comment":    rv.Comment,
		"updated_at": rv.UpdatedAt.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mr mongoReview
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	out := mr.toDomain()
	out.Username = rv.Username
	return out, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrReviewNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *ReviewRepository) DeleteByArticle(ctx context.Context, articleID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"article_id": articleID})
}

func (r *ReviewRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"user_id": userID})
}
