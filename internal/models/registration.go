package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration links one volunteer to one post. PostID holds the
// post's hex identity as a copied value; there is no owning
// relationship in the store. Registrations are never mutated after
// creation.
type Registration struct {
	ID             primitive.ObjectID `json:"_id,omitempty"   bson:"_id,omitempty"`
	PostID         string             `json:"postId"          bson:"postId"`
	PostTitle      string             `json:"postTitle,omitempty" bson:"postTitle,omitempty"`
	VolunteerID    string             `json:"volunteerId,omitempty" bson:"volunteerId,omitempty"`
	VolunteerName  string             `json:"volunteerName,omitempty" bson:"volunteerName,omitempty"`
	VolunteerEmail string             `json:"volunteerEmail"  bson:"volunteerEmail"`
	RegisteredAt   time.Time          `json:"registeredAt"    bson:"registeredAt"`
}

// RegisterRequest is the JSON body for POST /api/volunteers and
// POST /volunteer-requests.
type RegisterRequest struct {
	PostID         string `json:"postId"`
	VolunteerID    string `json:"volunteerId"`
	VolunteerName  string `json:"volunteerName"`
	VolunteerEmail string `json:"volunteerEmail"`
}

// RegisterResponse reports the stored registration id together with
// the post's authoritative post-decrement counter.
type RegisterResponse struct {
	RegistrationID      string `json:"registrationId"`
	NewVolunteersNeeded int    `json:"newVolunteersNeeded"`
}
