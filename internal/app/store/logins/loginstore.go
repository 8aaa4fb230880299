// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"time"

	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// Record inserts rec. A zero ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, rec models.LoginRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// ListRecent returns the newest limit logins of one account, newest first.
func (s *Store) ListRecent(ctx context.Context, accountID primitive.ObjectID, role models.Role, limit int64) ([]models.LoginRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"account_id": accountID, "role": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.LoginRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
