// internal/app/store/supervisors/supervisorstore.go
package supervisorstore

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

// ErrDuplicateEnrolment means the email is already registered for the session.
var ErrDuplicateEnrolment = errors.New("supervisor already registered for this session")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("supervisors")}
}

func (s *Store) Create(ctx context.Context, sup models.Supervisor) (models.Supervisor, error) {
	now := time.Now().UTC()
	sup.ID = primitive.NewObjectID()
	sup.CreatedAt = now
	sup.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sup); err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqSupervisorSession) {
			return models.Supervisor{}, ErrDuplicateEnrolment
		}
		return models.Supervisor{}, err
	}
	return sup, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Supervisor, error) {
	var sup models.Supervisor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sup); err != nil {
		return models.Supervisor{}, err
	}
	return sup, nil
}

// GetLatestByEmail returns the most recent enrolment for email. A supervisor
// who served several sessions logs in as their newest one.
func (s *Store) GetLatestByEmail(ctx context.Context, email string) (models.Supervisor, error) {
	var sup models.Supervisor
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.c.FindOne(ctx, bson.M{"email": email}, opts).Decode(&sup); err != nil {
		return models.Supervisor{}, err
	}
	return sup, nil
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

// ListBySession returns a session's supervisors sorted by name, optionally
// narrowed to one domain.
func (s *Store) ListBySession(ctx context.Context, sessionID primitive.ObjectID, domainID *primitive.ObjectID) ([]models.Supervisor, error) {
	filter := bson.M{"session_id": sessionID}
	if domainID != nil {
		filter["domain_id"] = *domainID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Supervisor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
