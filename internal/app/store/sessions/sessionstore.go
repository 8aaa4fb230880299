// internal/app/store/sessions/sessionstore.go
package sessionstore

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

// ErrDuplicateSession is returned when two upserts for the same
// (year, department) race and the loser hits the unique index.
var ErrDuplicateSession = errors.New("a session for this year and department already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var sess models.Session
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// GetByYearDept is the exact-match policy lookup.
func (s *Store) GetByYearDept(ctx context.Context, year, department string) (models.Session, error) {
	var sess models.Session
	err := s.c.FindOne(ctx, bson.M{"year": year, "department": department}).Decode(&sess)
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// FindActive returns up to two active sessions, which is enough for the
// caller to tell "one" from "more than one". An empty department searches
// every department.
func (s *Store) FindActive(ctx context.Context, department string) ([]models.Session, error) {
	filter := bson.M{"status": models.SessionActive}
	if department != "" {
		filter["department"] = department
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetLimit(2).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns every active session. Used by counter reconciliation.
func (s *Store) ListActive(ctx context.Context) ([]models.Session, error) {
	return s.find(ctx, bson.M{"status": models.SessionActive})
}

// List returns sessions sorted by year, optionally filtered by status.
func (s *Store) List(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Session, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "year", Value: 1}, {Key: "department", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Session
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertPolicy writes the policy numbers of the (year, department) session,
// creating it in draft status when it does not exist. Status is never
// touched here; transitions go through CompareAndSetStatus.
func (s *Store) UpsertPolicy(ctx context.Context, year, department string, policy models.SessionPolicy) (models.Session, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"min_members":     policy.MinMembers,
			"max_members":     policy.MaxMembers,
			"min_groups":      policy.MinGroups,
			"max_groups":      policy.MaxGroups,
			"min_cgpa":        policy.MinCGPA,
			"num_evaluations": policy.NumEvaluations,
			"d1_weightage":    policy.Defense1Weightage,
			"d2_weightage":    policy.Defense2Weightage,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"status":     models.SessionDraft,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var sess models.Session
	err := s.c.FindOneAndUpdate(ctx, bson.M{"year": year, "department": department}, update, opts).Decode(&sess)
	if err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqSessionYearDept) {
			return models.Session{}, ErrDuplicateSession
		}
		return models.Session{}, err
	}
	return sess, nil
}

// CompareAndSetStatus moves the session from one status to another only if
// it still holds the expected one. It reports whether the write happened.
func (s *Store) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.SessionStatus) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
