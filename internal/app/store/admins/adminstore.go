// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateEmail = errors.New("an admin with this email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins")}
}

func (s *Store) Create(ctx context.Context, a models.Admin) (models.Admin, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqAdminEmail) {
			return models.Admin{}, ErrDuplicateEmail
		}
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&a); err != nil {
		return models.Admin{}, err
	}
	return a, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
