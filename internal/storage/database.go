package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// mongoPoem is the stored document: the poem plus its crawl-tree key and
// the run that last wrote it.
type mongoPoem struct {
	types.Poem `bson:",inline"`

	Key       string    `bson:"key"`
	RunID     string    `bson:"run_id"`
	ScrapedAt time.Time `bson:"scraped_at"`
}

// MongoStorage mirrors poems into a MongoDB collection, one document per
// source URL.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	runID      string
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to MongoDB and returns a storage backend for the
// given collection.
func NewMongoStorage(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	runID := uuid.New().String()
	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		runID:      runID,
		logger:     logger.With("component", "mongo_storage", "run_id", runID),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

// RunID identifies this crawl in every document it writes.
func (s *MongoStorage) RunID() string { return s.runID }

// Prepare is a no-op; collections need no per-poet setup.
func (s *MongoStorage) Prepare(era, poet string) error { return nil }

func (s *MongoStorage) Exists(key Key) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := s.collection.CountDocuments(ctx, bson.M{"key": keyString(key)}, options.Count().SetLimit(1))
	if err != nil {
		s.logger.Warn("mongodb exists check failed", "key", keyString(key), "error", err)
		return false
	}
	return n > 0
}

// Store upserts the poem by source URL, so re-scraping a poem replaces its
// document instead of duplicating it.
func (s *MongoStorage) Store(ctx context.Context, key Key, poem *types.Poem) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	doc := mongoPoem{
		Poem:      *poem,
		Key:       keyString(key),
		RunID:     s.runID,
		ScrapedAt: time.Now().UTC(),
	}
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"source_url": poem.SourceURL},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Path: poem.SourceURL, Err: fmt.Errorf("upsert: %w", err)}
	}

	s.mu.Lock()
	s.count++
	total := s.count
	s.mu.Unlock()

	s.logger.Debug("poem stored in mongodb", "key", doc.Key, "total", total)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_poems", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func keyString(key Key) string {
	return path.Join(key.Era, key.Poet, key.Name)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes poems to a primary backend and any number of mirrors.
// Only the primary decides whether a poem exists and only primary failures
// are returned; mirror failures are logged.
type MultiStorage struct {
	primary Storage
	mirrors []Storage
	logger  *slog.Logger
}

// NewMultiStorage creates a storage that fans out from primary to mirrors.
func NewMultiStorage(primary Storage, mirrors []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		primary: primary,
		mirrors: mirrors,
		logger:  logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Prepare(era, poet string) error {
	if err := s.primary.Prepare(era, poet); err != nil {
		return err
	}
	for _, m := range s.mirrors {
		if err := m.Prepare(era, poet); err != nil {
			s.logger.Error("mirror prepare failed", "backend", m.Name(), "error", err)
		}
	}
	return nil
}

func (s *MultiStorage) Exists(key Key) bool {
	return s.primary.Exists(key)
}

func (s *MultiStorage) Store(ctx context.Context, key Key, poem *types.Poem) error {
	if err := s.primary.Store(ctx, key, poem); err != nil {
		return err
	}
	for _, m := range s.mirrors {
		if err := m.Store(ctx, key, poem); err != nil {
			s.logger.Error("mirror store failed", "backend", m.Name(), "error", err)
		}
	}
	return nil
}

func (s *MultiStorage) Close() error {
	firstErr := s.primary.Close()
	for _, m := range s.mirrors {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
