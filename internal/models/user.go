package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User matches the document in MongoDB. ParentID links an agent to the
// admin who created them; empty for users created by the super-admin.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID    string             `bson:"userID" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	ParentID  string             `bson:"parentID,omitempty" json:"parent_id,omitempty"`
	Status    string             `bson:"status" json:"status"` // ACTIVE, INACTIVE
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
