package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/normalize"
)

// UsersStore performs user upserts keyed by email.
type UsersStore struct {
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// UpsertResult reports what an upsert actually did.
type UpsertResult int

const (
	// UpsertCreated means a new user record was inserted.
	UpsertCreated UpsertResult = iota
	// UpsertUpdated means an existing record had its phone changed.
	UpsertUpdated
	// UpsertUnchanged means the record already matched; no write happened.
	UpsertUnchanged
)

// Upsert inserts a full stamped record for a new email, or updates only
// the phone field when it differs on an existing record. The original
// created stamp is never overwritten; identical input performs no write.
func (s *UsersStore) Upsert(ctx context.Context, email, phone string) (UpsertResult, error) {
	if email == "" {
		return 0, apperr.Validationf("Invalid user object")
	}
	key := normalize.Email(email)

	var existing User
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		user := &User{
			ID:      key,
			Email:   key,
			Phone:   phone,
			Created: Stamp(time.Now()),
		}
		if _, err := s.coll.InsertOne(ctx, user); err != nil {
			return 0, apperr.Internal(err)
		}
		return UpsertCreated, nil
	}
	if err != nil {
		return 0, apperr.Internal(err)
	}

	if existing.Phone == phone {
		return UpsertUnchanged, nil
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{"phone": phone}}); err != nil {
		return 0, apperr.Internal(err)
	}
	return UpsertUpdated, nil
}

// Get fetches a user by email.
func (s *UsersStore) Get(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.coll.FindOne(ctx, bson.M{"_id": normalize.Email(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFoundf("user does not exist")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &user, nil
}
