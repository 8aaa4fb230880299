// internal/domain/models/domain.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain is a named research area used to tag supervisors.
type Domain struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
