package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a volunteering opportunity stored in the posts collection.
// VolunteersNeeded is the remaining open slot count; it only ever
// decreases through the registration workflow, except for the
// administrative overwrite endpoint.
type Post struct {
	ID               primitive.ObjectID `json:"_id,omitempty"      bson:"_id,omitempty"`
	Thumbnail        string             `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Title            string             `json:"title"              bson:"title"`
	Description      string             `json:"description,omitempty" bson:"description,omitempty"`
	Category         string             `json:"category,omitempty" bson:"category,omitempty"`
	Location         string             `json:"location,omitempty" bson:"location,omitempty"`
	VolunteersNeeded *int               `json:"volunteersNeeded"   bson:"volunteersNeeded"`
	Deadline         time.Time          `json:"deadline"           bson:"deadline"`
	OrganizerName    string             `json:"organizerName,omitempty" bson:"organizerName,omitempty"`
	OrganizerEmail   string             `json:"organizerEmail"     bson:"organizerEmail"`
	CreatedAt        time.Time          `json:"createdAt"          bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Remaining returns the counter value, treating a missing field as 0.
func (p *Post) Remaining() int {
	if p.VolunteersNeeded == nil {
		return 0
	}
	return *p.VolunteersNeeded
}

// PostFilter narrows and shapes a posts listing.
type PostFilter struct {
	Search         string // case-insensitive substring match on title
	SortByDeadline bool   // ascending
	Limit          int64  // 0 means no limit
}

// PostPatch is the mutable subset accepted by PUT /posts/{id}.
// OrganizerEmail doubles as the caller-asserted identity; it must
// match the stored owner and is never itself rewritten.
type PostPatch struct {
	Thumbnail        string    `json:"thumbnail"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	VolunteersNeeded *int      `json:"volunteersNeeded"`
	Deadline         time.Time `json:"deadline"`
	OrganizerName    string    `json:"organizerName"`
	OrganizerEmail   string    `json:"organizerEmail"`
}
