package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/volunteerhub/backend/internal/models"
)

// RegistrationStore handles registration documents in MongoDB.
type RegistrationStore struct {
	col *mongo.Collection
}

func NewRegistrationStore(db *mongo.Database) *RegistrationStore {
	return &RegistrationStore{col: db.Collection("registrations")}
}

// EnsureIndexes creates the unique compound index on
// (postId, volunteerEmail). The index makes the insert itself the
// atomicity boundary for the one-registration-per-pair rule; the
// workflow's pre-check only exists for a friendlier error.
func (s *RegistrationStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "postId", Value: 1},
			{Key: "volunteerEmail", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("registrations index: %w", err)
	}
	return nil
}

func (s *RegistrationStore) Insert(ctx context.Context, r *models.Registration) error {
	res, err := s.col.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("registration %s/%s: %w", r.PostID, r.VolunteerEmail, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *RegistrationStore) Exists(ctx context.Context, postID, email string) (bool, error) {
	err := s.col.FindOne(ctx,
		bson.M{"postId": postID, "volunteerEmail": email},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("registration lookup: %w", err)
	}
	return true, nil
}

func (s *RegistrationStore) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	rid, err := oid(id)
	if err != nil {
		return nil, err
	}
	var r models.Registration
	err = s.col.FindOne(ctx, bson.M{"_id": rid}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &r, nil
}

func (s *RegistrationStore) ListByVolunteer(ctx context.Context, email string) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registeredAt", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"volunteerEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer cur.Close(ctx)

	var regs []models.Registration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

func (s *RegistrationStore) Delete(ctx context.Context, id string) error {
	rid, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": rid})
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("registration %s: %w", id, ErrNotFound)
	}
	return nil
}
