// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SupervisorSnapshot is the supervisor as it was when the group formed.
// Later renames do not touch it.
type SupervisorSnapshot struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Group is a supervised project team formed under one session's policy.
// Every id in Members has its Student.GroupID pointing back at this group.
//
// The approval fields are reserved; nothing in this service changes them.
type Group struct {
	ID              primitive.ObjectID   `bson:"_id" json:"id"`
	IdeaName        string               `bson:"idea_name" json:"ideaName"`
	IdeaDescription string               `bson:"idea_description" json:"ideaDescription"`
	SessionID       primitive.ObjectID   `bson:"session_id" json:"sessionId"`
	Supervisor      SupervisorSnapshot   `bson:"supervisor" json:"supervisor"`
	Members         []primitive.ObjectID `bson:"members" json:"members"`

	AdminStatus       bool   `bson:"admin_status" json:"adminStatus"`
	AdminMessage      string `bson:"admin_message" json:"adminMessage"`
	SupervisorStatus  bool   `bson:"supervisor_status" json:"supervisorStatus"`
	SupervisorMessage string `bson:"supervisor_message" json:"supervisorMessage"`
	OverallStatus     bool   `bson:"overall_status" json:"overallStatus"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
