package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const countersCollection = "counters"

// mongoDocument is the stored shape. Body holds the JSON encoding of the entity
// so that field names and filters match the PostgreSQL store.
type mongoDocument struct {
	ID        int64     `bson:"_id"`
	Version   int32     `bson:"version"`
	Body      bson.Raw  `bson:"body"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoCollection implements Collection with one MongoDB collection per entity.
type MongoCollection[T any] struct {
	coll     *mongo.Collection
	counters *mongo.Collection
	name     string
}

var _ Collection[struct{}] = (*MongoCollection[struct{}])(nil)

// NewMongoCollection creates a collection named name in db.
func NewMongoCollection[T any](db *mongo.Database, name string) *MongoCollection[T] {
	return &MongoCollection[T]{
		coll:     db.Collection(name),
		counters: db.Collection(countersCollection),
		name:     name,
	}
}

func (c *MongoCollection[T]) NextID(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := c.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": c.name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", c.name, err)
	}
	return counter.Value, nil
}

func (c *MongoCollection[T]) Insert(ctx context.Context, id int64, doc T) (*Record[T], error) {
	body, err := toBSON(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	stored := mongoDocument{ID: id, Version: 1, Body: body, CreatedAt: now, UpdatedAt: now}
	if _, err := c.coll.InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to insert %s document: %w", c.name, err)
	}
	return &Record[T]{ID: id, Version: 1, Doc: doc, CreatedAt: now, UpdatedAt: now}, nil
}

func (c *MongoCollection[T]) FindByID(ctx context.Context, id int64) (*Record[T], error) {
	var stored mongoDocument
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&stored); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, berrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find %s by ID: %w", c.name, err)
	}
	return c.toRecord(stored)
}

func (c *MongoCollection[T]) Find(ctx context.Context, filter Filter, offset, limit int) ([]Record[T], error) {
	query := bson.M{}
	for k, v := range filter {
		query["body."+k] = v
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := c.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", c.name, err)
	}
	var stored []mongoDocument
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to read %s documents: %w", c.name, err)
	}

	records := make([]Record[T], 0, len(stored))
	for _, s := range stored {
		rec, err := c.toRecord(s)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (c *MongoCollection[T]) Count(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", c.name, err)
	}
	return n, nil
}

func (c *MongoCollection[T]) Replace(ctx context.Context, id int64, version int32, doc T) (*Record[T], error) {
	body, err := toBSON(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", c.name, err)
	}
	update := bson.M{
		"$set": bson.M{"body": body, "updated_at": time.Now().UTC().Truncate(time.Millisecond)},
		"$inc": bson.M{"version": int32(1)},
	}
	var stored mongoDocument
	err = c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": version},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)
	if err == nil {
		return c.toRecord(stored)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update %s document: %w", c.name, err)
	}

	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s document: %w", c.name, err)
	}
	if n > 0 {
		return nil, berrors.ErrOptimisticLock
	}
	return nil, berrors.ErrDocumentNotFound
}

func (c *MongoCollection[T]) Delete(ctx context.Context, id int64) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s by ID: %w", c.name, err)
	}
	if res.DeletedCount == 0 {
		return berrors.ErrDocumentNotFound
	}
	return nil
}

func (c *MongoCollection[T]) toRecord(stored mongoDocument) (*Record[T], error) {
	data, err := bson.MarshalExtJSON(stored.Body, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s document %d: %w", c.name, stored.ID, err)
	}
	rec := Record[T]{
		ID:        stored.ID,
		Version:   stored.Version,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}
	if err := json.Unmarshal(data, &rec.Doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %d: %w", c.name, stored.ID, err)
	}
	return &rec, nil
}

// toBSON converts doc through its JSON encoding.
func toBSON(doc any) (bson.Raw, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(data, false, &d); err != nil {
		return nil, err
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
