package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepgraph/stepgraph/pkg/graphio"
)

const (
	defaultDatabase   = "stepgraph"
	layoutsCollection = "layouts"
)

// MongoStore persists layouts in a MongoDB collection. Layout documents use
// the layout ID as _id, so saves with the same ID replace the document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	// URI is the full connection string, e.g. "mongodb://localhost:27017".
	URI string

	// Database defaults to "stepgraph" when empty.
	Database string
}

// NewMongoStore connects to MongoDB and verifies the connection before
// returning, so misconfiguration fails fast.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URI, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", cfg.URI, err)
	}

	db := cfg.Database
	if db == "" {
		db = defaultDatabase
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(layoutsCollection),
	}, nil
}

// Save upserts a layout, assigning an ID when missing.
func (s *MongoStore) Save(ctx context.Context, l graphio.Layout) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, l, opts); err != nil {
		return "", fmt.Errorf("save layout %s: %w", l.ID, err)
	}
	return l.ID, nil
}

// Get retrieves a layout by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (graphio.Layout, error) {
	var l graphio.Layout
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graphio.Layout{}, ErrNotFound
	}
	if err != nil {
		return graphio.Layout{}, fmt.Errorf("get layout %s: %w", id, err)
	}
	return l, nil
}

// List returns all stored layouts sorted by ID.
func (s *MongoStore) List(ctx context.Context) ([]graphio.Layout, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []graphio.Layout
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode layouts: %w", err)
	}
	return out, nil
}

// Delete removes a layout.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete layout %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
