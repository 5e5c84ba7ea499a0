package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nandincho/blogforge/internal/config"
	"github.com/nandincho/blogforge/internal/types"
)

// Mongo persists articles in a MongoDB collection with a unique index on
// sourceUrl backing the idempotent-write invariant.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongo connects to the document store and ensures indexes.
func NewMongo(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, &types.StoreError{Op: "ping", Err: err}
	}

	m := &Mongo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With("component", "mongo_store"),
	}

	_, err = m.collection.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sourceUrl", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, &types.StoreError{Op: "ensure_index", Err: err}
	}

	return m, nil
}

// UpsertOriginal performs an atomic create-or-update keyed by sourceUrl.
// On update only title and originalContent change; other fields are left
// untouched. The explicit Created flag is derived once here, at the
// adapter boundary.
func (m *Mongo) UpsertOriginal(ctx context.Context, a *types.Article) (UpsertResult, error) {
	now := time.Now().UTC()

	res, err := m.collection.UpdateOne(ctx,
		bson.M{"sourceUrl": a.SourceURL},
		bson.M{
			"$set": bson.M{
				"title":           a.Title,
				"sourceUrl":       a.SourceURL,
				"originalContent": a.OriginalContent,
				"updatedAt":       now,
			},
			"$setOnInsert": bson.M{
				"version":   types.VersionOriginal,
				"createdAt": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return UpsertResult{}, &types.StoreError{Op: "upsert_original", Err: err}
	}

	created := res.UpsertedCount > 0
	m.logger.Debug("original upserted", "source_url", a.SourceURL, "created", created)
	return UpsertResult{Created: created}, nil
}

// InsertUpdated always creates a new rewrite record. Uniqueness conflicts
// are prevented by construction: the caller derives the sourceUrl from the
// parent's.
func (m *Mongo) InsertUpdated(ctx context.Context, a *types.Article) (string, error) {
	now := time.Now().UTC()
	a.Version = types.VersionUpdated
	a.CreatedAt = now
	a.UpdatedAt = now

	res, err := m.collection.InsertOne(ctx, a)
	if err != nil {
		return "", &types.StoreError{Op: "insert_updated", Err: err}
	}

	oid, _ := res.InsertedID.(primitive.ObjectID)
	m.logger.Debug("updated record inserted", "source_url", a.SourceURL, "id", oid.Hex())
	return oid.Hex(), nil
}

// List returns articles, newest first, optionally filtered by version.
func (m *Mongo) List(ctx context.Context, version types.Version) ([]types.Article, error) {
	filter := bson.M{}
	if version != "" {
		filter["version"] = version
	}

	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, &types.StoreError{Op: "list", Err: err}
	}
	defer cursor.Close(ctx)

	var articles []types.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, &types.StoreError{Op: "list_decode", Err: err}
	}
	return articles, nil
}

// Get returns one article by id.
func (m *Mongo) Get(ctx context.Context, id string) (*types.Article, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrNotFound
	}

	var a types.Article
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StoreError{Op: "get", Err: err}
	}
	return &a, nil
}

// Update patches the mutable fields of a record.
func (m *Mongo) Update(ctx context.Context, id string, patch *types.Article) (*types.Article, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != "" {
		set["title"] = patch.Title
	}
	if patch.Author != "" {
		set["author"] = patch.Author
	}
	if patch.PublishedAt != "" {
		set["publishedAt"] = patch.PublishedAt
	}
	if patch.OriginalContent != "" {
		set["originalContent"] = patch.OriginalContent
	}

	var a types.Article
	err = m.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StoreError{Op: "update", Err: err}
	}
	return &a, nil
}

// Delete removes a record by id.
func (m *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.ErrNotFound
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return &types.StoreError{Op: "delete", Err: err}
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Close disconnects from the store.
func (m *Mongo) Close(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Disconnect(disconnectCtx)
}
