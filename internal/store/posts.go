package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/volunteerhub/backend/internal/models"
)

// PostStore handles opportunity documents in MongoDB.
type PostStore struct {
	col *mongo.Collection
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{col: db.Collection("posts")}
}

func (s *PostStore) Insert(ctx context.Context, p *models.Post) error {
	res, err := s.col.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// listFilter builds the Find filter for List. The search term is a
// literal substring, so regex metacharacters are escaped before the
// term is handed to the server as $regex.
func listFilter(f models.PostFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	return filter
}

func (s *PostStore) List(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	filter := listFilter(f)
	opts := options.Find()
	if f.SortByDeadline {
		opts.SetSort(bson.D{{Key: "deadline", Value: 1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	pid, err := oid(id)
	if err != nil {
		return nil, err
	}
	var p models.Post
	err = s.col.FindOne(ctx, bson.M{"_id": pid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

func (s *PostStore) ListByOwner(ctx context.Context, email string) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"organizerEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts by owner: %w", err)
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update applies the non-empty fields of patch and stamps updatedAt.
// The organizer email is never rewritten; ownership is checked by the
// caller before this runs. An empty patch, or one the store reports as
// changing nothing, yields ErrNoChange.
func (s *PostStore) Update(ctx context.Context, id string, patch models.PostPatch, at time.Time) error {
	pid, err := oid(id)
	if err != nil {
		return err
	}

	set := bson.M{}
	if patch.Thumbnail != "" {
		set["thumbnail"] = patch.Thumbnail
	}
	if patch.Title != "" {
		set["title"] = patch.Title
	}
	if patch.Description != "" {
		set["description"] = patch.Description
	}
	if patch.Category != "" {
		set["category"] = patch.Category
	}
	if patch.Location != "" {
		set["location"] = patch.Location
	}
	if patch.VolunteersNeeded != nil {
		set["volunteersNeeded"] = *patch.VolunteersNeeded
	}
	if !patch.Deadline.IsZero() {
		set["deadline"] = patch.Deadline
	}
	if patch.OrganizerName != "" {
		set["organizerName"] = patch.OrganizerName
	}
	if len(set) == 0 {
		return ErrNoChange
	}
	set["updatedAt"] = at

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if res.ModifiedCount == 0 {
		return ErrNoChange
	}
	return nil
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	pid, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": pid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetVolunteersNeeded overwrites the counter unconditionally. This is
// the administrative correction path, distinct from the guarded
// decrement used by the registration workflow.
func (s *PostStore) SetVolunteersNeeded(ctx context.Context, id string, value int) error {
	pid, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": pid},
		bson.M{"$set": bson.M{"volunteersNeeded": value, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("set volunteersNeeded: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementIfAvailable decrements volunteersNeeded by one, but only
// while the counter is still positive: the filter and $inc run as one
// atomic store operation, so the counter can never go negative even
// under concurrent callers. A read-modify-write here would lose
// updates. Returns false when no document matched, i.e. the post is
// gone or its capacity is already zero.
func (s *PostStore) DecrementIfAvailable(ctx context.Context, id string) (bool, error) {
	pid, err := oid(id)
	if err != nil {
		return false, err
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": pid, "volunteersNeeded": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"volunteersNeeded": -1}},
	)
	if err != nil {
		return false, fmt.Errorf("decrement volunteersNeeded: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
