// internal/app/store/evaluators/evaluatorstore.go
package evaluatorstore

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

var ErrDuplicateEnrolment = errors.New("evaluator already registered for this session")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("evaluators")}
}

func (s *Store) Create(ctx context.Context, ev models.Evaluator) (models.Evaluator, error) {
	now := time.Now().UTC()
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqEvaluatorSession) {
			return models.Evaluator{}, ErrDuplicateEnrolment
		}
		return models.Evaluator{}, err
	}
	return ev, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Evaluator, error) {
	var ev models.Evaluator
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		return models.Evaluator{}, err
	}
	return ev, nil
}

func (s *Store) GetLatestByEmail(ctx context.Context, email string) (models.Evaluator, error) {
	var ev models.Evaluator
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.c.FindOne(ctx, bson.M{"email": email}, opts).Decode(&ev); err != nil {
		return models.Evaluator{}, err
	}
	return ev, nil
}

func (s *Store) EnrolledInSession(ctx context.Context, email string, sessionID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email": email, "session_id": sessionID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
