package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techpress/publishing-api/internal/core/domain"
)

type LikeRepository struct {
	coll *mongo.Collection
}

func NewLikeRepository(db *mongo.Database) *LikeRepository {
	return &LikeRepository{coll: db.Collection(collectionLikes)}
}

type mongoLike struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ArticleID string             `bson:"article_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Insert relies on the unique (user_id, article_id) index: a duplicate key
// means a concurrent toggle got there first and is reported as not inserted.
func (r *LikeRepository) Insert(ctx context.Context, like *domain.Like) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoLike{
		ID:        primitive.NewObjectID(),
		UserID:    like.UserID,
		ArticleID: like.ArticleID,
		CreatedAt: like.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	like.ID = doc.ID.Hex()
	return true, nil
}

func (r *LikeRepository) Remove(ctx context.Context, userID, articleID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "article_id": articleID})
	if err != nil {
		return false, fmt.Errorf("remove like: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *LikeRepository) Exists(ctx context.Context, userID, articleID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "article_id": articleID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("find like: %w", err)
	}
	return n > 0, nil
}

func (r *LikeRepository) CountByArticle(ctx context.Context, articleID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"article_id": articleID})
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (r *LikeRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete likes: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *LikeRepository) DeleteByArticle(ctx context.Context, articleID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"article_id": articleID})
}

func (r *LikeRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"user_id": userID})
}
