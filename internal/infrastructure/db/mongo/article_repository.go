package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techpress/publishing-api/internal/core/domain"
	"github.com/techpress/publishing-api/internal/core/ports"
)

type ArticleRepository struct {
	coll *mongo.Collection
}

func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	return &ArticleRepository{coll: db.Collection(collectionArticles)}
}

type mongoArticle struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Tags        []string           `bson:"tags"`
	AuthorID    string             `bson:"author_id"`
	Status      string             `bson:"status"`
	PublishedAt *time.Time         `bson:"published_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toMongoArticle(a *domain.Article) mongoArticle {
	doc := mongoArticle{
		Title:     a.Title,
		Content:   a.Content,
		Tags:      a.Tags,
		AuthorID:  a.AuthorID,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if a.PublishedAt != nil {
		doc.PublishedAt = ptrTime(*a.PublishedAt)
	}
	return doc
}

func (ma *mongoArticle) toDomain() *domain.Article {
	a := &domain.Article{
		ID:        ma.ID.Hex(),
		Title:     ma.Title,
		Content:   ma.Content,
		Tags:      ma.Tags,
		AuthorID:  ma.AuthorID,
		Status:    domain.ArticleStatus(ma.Status),
		CreatedAt: ma.CreatedAt.UTC(),
		UpdatedAt: ma.UpdatedAt.UTC(),
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if ma.PublishedAt != nil {
		a.PublishedAt = ptrTime(*ma.PublishedAt)
	}
	return a
}

func (r *ArticleRepository) Create(ctx context.Context, a *domain.Article) (*domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoArticle(a)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrArticleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoArticle
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, fmt.Errorf("find article: %w", err)
	}
	return ma.toDomain(), nil
}

// scopeFilter translates the visibility predicate into a query clause.
func scopeFilter(s domain.ArticleScope) bson.M {
	switch s.Visibility {
	case domain.VisibilityAll:
		return bson.M{}
	case domain.VisibilityPublishedOrOwnDrafts:
		return bson.M{"$or": bson.A{
			bson.M{"status": string(domain.StatusPublished)},
			bson.M{"author_id": s.OwnerID},
		}}
	default:
		return bson.M{"status": string(domain.StatusPublished)}
	}
}

func listFilter(q domain.ArticleQuery) bson.M {
	clauses := bson.A{scopeFilter(q.Scope)}
	if q.AuthorID != "" {
		clauses = append(clauses, bson.M{"author_id": q.AuthorID})
	}
	if q.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"title": rx},
			bson.M{"content": rx},
		}})
	}
	if len(q.Tags) > 0 {
		clauses = append(clauses, bson.M{"tags": bson.M{"$in": q.Tags}})
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.M)
	}
	return bson.M{"$and": clauses}
}

func sortSpec(s domain.ArticleSort) bson.D {
	switch s {
	case domain.SortOldest:
		return bson.D{{Key: "published_at", Value: 1}, {Key: "created_at", Value: 1}}
	case domain.SortTitle:
		return bson.D{{Key: "title", Value: 1}, {Key: "created_at", Value: -1}}
	case domain.SortStatus:
		return bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}
	case domain.SortCreated:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		// Public listings order by publication date; drafts have no
		// published_at and fall back to creation order.
		return bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}
	}
}

func (r *ArticleRepository) List(ctx context.Context, q domain.ArticleQuery) ([]*domain.Article, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(q)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	cur, err := r.coll.Find(ctx, filter, pageOptions(q.Page, q.Limit).SetSort(sortSpec(q.Sort)))
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	var docs []mongoArticle
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode articles: %w", err)
	}

	out := make([]*domain.Article, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// Update is a compare-and-set on status and updated_at, so an edit computed
// from a stale read cannot overwrite a concurrent publish.
func (r *ArticleRepository) Update(ctx context.Context, a *domain.Article, rev domain.ArticleRevision) (*domain.Article, error) {
	oid, ok := objectID(a.ID)
	if !ok {
		return nil, domain.ErrArticleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoArticle(a)
	update := bson.M{"$set": bson.M{
		"title":        doc.Title,
		"content":      doc.Content,
		"tags":         doc.Tags,
		"status":       doc.Status,
		"published_at": doc.PublishedAt,
		"updated_at":   doc.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ma mongoArticle
	err := r.coll.FindOneAndUpdate(ctx, revisionFilter(oid, rev), update, opts).Decode(&ma)
	if err == nil {
		return ma.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update article: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrArticleNotFound
	}
	return nil, domain.ErrArticleChanged
}

func revisionFilter(oid primitive.ObjectID, rev domain.ArticleRevision) bson.M {
	return bson.M{
		"_id":        oid,
		"status":     string(rev.Status),
		"updated_at": rev.UpdatedAt.UTC(),
	}
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrArticleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

func (r *ArticleRepository) IDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := r.coll.Find(ctx, bson.M{"author_id": authorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find article ids: %w", err)
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode article ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

func (r *ArticleRepository) CountByStatus(ctx context.Context) (map[domain.ArticleStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count articles by status: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	out := make(map[domain.ArticleStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ArticleStatus(row.Status)] = row.Count
	}
	return out, nil
}

func publishedCond() bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.StatusPublished)}}}, 1, 0,
	}}}
}

func (r *ArticleRepository) StatsByAuthors(ctx context.Context, authorIDs []string) (map[string]ports.AuthorStats, error) {
	out := make(map[string]ports.AuthorStats, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "author_id", Value: bson.D{{Key: "$in", Value: authorIDs}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$author_id"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "published", Value: bson.D{{Key: "$sum", Value: publishedCond()}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("author stats: %w", err)
	}
	var rows []struct {
		AuthorID  string `bson:"_id"`
		Total     int64  `bson:"total"`
		Published int64  `bson:"published"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode author stats: %w", err)
	}

	for _, row := range rows {
		out[row.AuthorID] = ports.AuthorStats{
			Total:     row.Total,
			Published: row.Published,
			Drafts:    row.Total - row.Published,
		}
	}
	return out, nil
}

func (r *ArticleRepository) PublishingTrend(ctx context.Context, since time.Time) ([]ports.TrendPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "status", Value: string(domain.StatusPublished)},
			{Key: "published_at", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$published_at"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("publishing trend: %w", err)
	}
	var rows []struct {
		Day   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode publishing trend: %w", err)
	}

	out := make([]ports.TrendPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.TrendPoint{Day: row.Day, Count: row.Count})
	}
	return out, nil
}

func (r *ArticleRepository) ActiveWriters(ctx context.Context, since time.Time, limit int) ([]ports.WriterActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since.UTC()}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$author_id"},
			{Key: "article_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "published_count", Value: bson.D{{Key: "$sum", Value: publishedCond()}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "article_count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("active writers: %w", err)
	}
	var rows []struct {
		AuthorID       string `bson:"_id"`
		ArticleCount   int64  `bson:"article_count"`
		PublishedCount int64  `bson:"published_count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode active writers: %w", err)
	}

	out := make([]ports.WriterActivity, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.WriterActivity{
			AuthorID:       row.AuthorID,
			ArticleCount:   row.ArticleCount,
			PublishedCount: row.PublishedCount,
		})
	}
	return out, nil
}

func (r *ArticleRepository) PopularTags(ctx context.Context, limit int) ([]ports.TagCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: string(domain.StatusPublished)}}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$tags"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	var rows []struct {
		Tag   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode popular tags: %w", err)
	}

	out := make([]ports.TagCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.TagCount{Tag: row.Tag, Count: row.Count})
	}
	return out, nil
}
