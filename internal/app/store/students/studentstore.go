// internal/app/store/students/studentstore.go
package studentstore

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

var (
	ErrDuplicateEmail  = errors.New("a student with this email already exists")
	ErrDuplicateRollNo = errors.New("a student with this roll number already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

// Create inserts a new student. Unique-index violations come back as
// ErrDuplicateEmail or ErrDuplicateRollNo.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.GroupID = nil
	st.CreatedAt = now
	st.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, st); err != nil {
		switch {
		case indexes.IsDuplicateOn(err, indexes.UniqStudentEmail):
			return models.Student{}, ErrDuplicateEmail
		case indexes.IsDuplicateOn(err, indexes.UniqStudentRollNo):
			return models.Student{}, ErrDuplicateRollNo
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) GetByRollNo(ctx context.Context, rollNo string) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"roll_no": rollNo}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, bson.M{"email": email})
}

func (s *Store) RollNoExists(ctx context.Context, rollNo string) (bool, error) {
	return s.exists(ctx, bson.M{"roll_no": rollNo})
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByIDs loads the students with the given ids, in no particular order.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListUngrouped returns the students of a session that have no group yet,
// sorted by name.
func (s *Store) ListUngrouped(ctx context.Context, sessionID primitive.ObjectID) ([]models.Student, error) {
	return s.find(ctx,
		bson.M{"session_id": sessionID, "group_id": nil},
		options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Student, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveGroup binds the student to groupID only if the student belongs to
// sessionID and has no group yet. It reports whether the binding happened.
func (s *Store) ReserveGroup(ctx context.Context, studentID, sessionID, groupID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": studentID, "session_id": sessionID, "group_id": nil},
		bson.M{"$set": bson.M{"group_id": groupID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseGroup undoes ReserveGroup. Students bound to a different group are
// left alone.
func (s *Store) ReleaseGroup(ctx context.Context, studentIDs []primitive.ObjectID, groupID primitive.ObjectID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": studentIDs}, "group_id": groupID},
		bson.M{"$set": bson.M{"group_id": nil, "updated_at": time.Now().UTC()}},
	)
	return err
}

// GroupRefs returns the distinct group ids that students point at, limited to
// ids allocated before cutoff. ObjectIDs order by creation time, so a cutoff
// built with primitive.NewObjectIDFromTimestamp skips recent reservations.
func (s *Store) GroupRefs(ctx context.Context, cutoff primitive.ObjectID) ([]primitive.ObjectID, error) {
	vals, err := s.c.Distinct(ctx, "group_id", bson.M{"group_id": bson.M{"$ne": nil, "$lt": cutoff}})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// ClearGroupRef unbinds every student pointing at groupID and reports how
// many were changed.
func (s *Store) ClearGroupRef(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"group_id": groupID},
		bson.M{"$set": bson.M{"group_id": nil, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
