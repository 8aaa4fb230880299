// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateGroupID means a group with the preallocated id already exists.
var ErrDuplicateGroupID = errors.New("a group with this id already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Insert stores g under the id the caller already allocated. Group ids are
// chosen before members are reserved, so the store must not replace it.
func (s *Store) Insert(ctx context.Context, g models.Group) (models.Group, error) {
	if g.ID.IsZero() {
		return models.Group{}, errors.New("group id must be allocated before insert")
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Members == nil {
		g.Members = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupID
		}
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByMember returns the group listing studentID as a member.
func (s *Store) GetByMember(ctx context.Context, studentID primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"members": studentID}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ListBySession returns the groups of a session, newest first, optionally
// narrowed to one supervisor.
func (s *Store) ListBySession(ctx context.Context, sessionID primitive.ObjectID, supervisorID *primitive.ObjectID) ([]models.Group, error) {
	filter := bson.M{"session_id": sessionID}
	if supervisorID != nil {
		filter["supervisor.id"] = *supervisorID
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
