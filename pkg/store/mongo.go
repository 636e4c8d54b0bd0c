package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kintreehq/kintree/pkg/codec"
	"github.com/kintreehq/kintree/pkg/tree"
)

const (
	currentCollection  = "graph"
	snapshotCollection = "snapshots"

	// currentDocID keys the single current-state document; saves replace it
	// wholesale.
	currentDocID = "current"
)

// MongoConfig configures the Mongo-backed store.
type MongoConfig struct {
	URI      string // e.g. "mongodb://localhost:27017"
	Database string // defaults to "kintree"
}

// MongoStore persists graphs in MongoDB: one replaced-in-place document for
// the current state and an append-only collection of snapshot documents.
// Documents are stored in the interchange shape of [codec.Document].
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoGraph wraps an interchange document with a storage key.
type mongoGraph struct {
	ID             string `bson:"_id"`
	codec.Document `bson:",inline"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "kintree"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(cfg.Database)}, nil
}

// Load fetches and validates the current-state document.
func (s *MongoStore) Load(ctx context.Context) (*tree.Graph, error) {
	var doc mongoGraph
	err := s.db.Collection(currentCollection).
		FindOne(ctx, bson.M{"_id": currentDocID}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return codec.ToGraph(doc.Document)
}

// Save replaces the current-state document wholesale, creating it on first
// write.
func (s *MongoStore) Save(ctx context.Context, g *tree.Graph) error {
	doc := mongoGraph{ID: currentDocID, Document: codec.FromGraph(g)}
	_, err := s.db.Collection(currentCollection).ReplaceOne(ctx,
		bson.M{"_id": currentDocID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}

// Snapshot inserts a new document keyed by timestamp and content hash, so
// rapid successive snapshots never collide and an existing snapshot is
// never overwritten.
func (s *MongoStore) Snapshot(ctx context.Context, g *tree.Graph) error {
	id := fmt.Sprintf("%s-%s", time.Now().UTC().Format(snapshotTimeLayout), tree.Hash(g)[:12])
	doc := mongoGraph{ID: id, Document: codec.FromGraph(g)}
	_, err := s.db.Collection(snapshotCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		// Same second, same content: the snapshot already exists.
		return nil
	}
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
