package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/volunteerhub/backend/internal/models"
)

// UserStore handles user documents in MongoDB. Email uniqueness is
// upheld by the upsert logic in the users handler, not by an index.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	res, err := s.col.InsertOne(ctx, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// RefreshSignIn updates lastSignInTime and, when the incoming values
// are non-empty, name and photoURL. Existing values win otherwise.
// The returned flag reports whether the store modified anything.
func (s *UserStore) RefreshSignIn(ctx context.Context, email, name, photoURL string, at time.Time) (bool, error) {
	set := bson.M{"lastSignInTime": at}
	if name != "" {
		set["name"] = name
	}
	if photoURL != "" {
		set["photoURL"] = photoURL
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("refresh sign-in: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Touch sets lastSignInTime for the given email unconditionally. An
// unknown email matches zero documents and is not an error.
func (s *UserStore) Touch(ctx context.Context, email string, at time.Time) (matched, modified int64, err error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"lastSignInTime": at}},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("touch user: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}
