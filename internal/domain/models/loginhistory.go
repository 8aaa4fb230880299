// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful login.
type LoginRecord struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	AccountID primitive.ObjectID `bson:"account_id" json:"accountId"`
	Role      Role               `bson:"role" json:"role"`
	IP        string             `bson:"ip" json:"ip"`
	UserAgent string             `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
