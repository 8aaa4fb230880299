// internal/app/store/domains/domainstore.go
package domainstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/intellipmo/intellipmo/internal/app/system/indexes"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateDomain = errors.New("a domain with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domains")}
}

func (s *Store) Create(ctx context.Context, d models.Domain) (models.Domain, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqDomainName) {
			return models.Domain{}, ErrDuplicateDomain
		}
		return models.Domain{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error) {
	var d models.Domain
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Domain{}, err
	}
	return d, nil
}

// List returns every domain sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Domain, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Domain
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes name and description. It returns mongo.ErrNoDocuments when
// the domain does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string) (models.Domain, error) {
	set := bson.M{
		"description": description,
		"updated_at":  time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}

	var d models.Domain
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		if indexes.IsDuplicateOn(err, indexes.UniqDomainName) {
			return models.Domain{}, ErrDuplicateDomain
		}
		return models.Domain{}, err
	}
	return d, nil
}

// ExistsByNameCI checks if a domain with the given folded name exists.
func (s *Store) ExistsByNameCI(ctx context.Context, nameCI string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": nameCI}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
