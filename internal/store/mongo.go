package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sentinel errors shared by all collection stores. Handlers map these
// to HTTP status codes with errors.Is.
var (
	ErrNotFound  = errors.New("document not found")
	ErrInvalidID = errors.New("invalid id")
	ErrNoChange  = errors.New("no fields changed")
	ErrDuplicate = errors.New("duplicate document")
)

// Connect opens a MongoDB client and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// oid parses a hex identity token, mapping parse failures to ErrInvalidID.
func oid(id string) (primitive.ObjectID, error) {
	parsed, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed, nil
}
