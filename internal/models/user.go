package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a marketplace account stored in the users collection.
// Email is the identity key; uniqueness is enforced by the upsert
// logic, not by a store constraint.
type User struct {
	ID             primitive.ObjectID `json:"_id,omitempty"    bson:"_id,omitempty"`
	Name           string             `json:"name,omitempty"   bson:"name,omitempty"`
	Email          string             `json:"email"            bson:"email"`
	PhotoURL       string             `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	Provider       string             `json:"provider"         bson:"provider"`
	Role           string             `json:"role"             bson:"role"`
	CreatedAt      time.Time          `json:"createdAt"        bson:"createdAt"`
	LastSignInTime time.Time          `json:"lastSignInTime"   bson:"lastSignInTime"`
}

// UpsertUserRequest is the JSON body for POST /users.
type UpsertUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
	Provider string `json:"provider"`
}

// TouchRequest is the JSON body for PATCH /users.
type TouchRequest struct {
	Email          string    `json:"email"`
	LastSignInTime time.Time `json:"lastSignInTime"`
}
