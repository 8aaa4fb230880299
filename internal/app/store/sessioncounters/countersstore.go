// internal/app/store/sessioncounters/countersstore.go
package countersstore

import (
	"context"
	"time"

	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds one activation counter per scope key.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("session_counters")}
}

// TryAcquire increments the counter for key from 0 to 1 in a single write.
// It reports false when the scope is already held.
//
// The filter only matches a counter below one. When the counter is already
// held the upsert tries to insert a second document for the key and the
// unique index rejects it, so two callers can never both succeed.
func (s *Store) TryAcquire(ctx context.Context, key string) (bool, error) {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": key, "active_sessions": bson.M{"$lt": 1}},
		bson.M{
			"$inc": bson.M{"active_sessions": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqCounterKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release decrements the counter for key, never below zero.
func (s *Store) Release(ctx context.Context, key string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": key, "active_sessions": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"active_sessions": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// List returns every counter.
func (s *Store) List(ctx context.Context) ([]models.SessionCounter, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionCounter
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Set overwrites the counter for key. Only reconciliation uses this.
func (s *Store) Set(ctx context.Context, key string, n int) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"active_sessions": n, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}
