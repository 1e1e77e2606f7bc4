// Package data provides the per-entity stores over MongoDB collections.
package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/normalize"
)

// MessagesStore persists contact messages.
type MessagesStore struct {
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using the given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// MessageInput is the caller-supplied part of a contact message.
type MessageInput struct {
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Create validates the input, stamps it with the server-side creation
// time and writes it at the derived key. Messages are immutable; there is
// no update path.
func (s *MessagesStore) Create(ctx context.Context, in MessageInput) (*Message, error) {
	if in.Email == "" || in.Type == "" || in.Message == "" {
		return nil, apperr.Validationf("Invalid message object")
	}

	created := Stamp(time.Now())
	msg := &Message{
		ID:      MessageKey(in.Email, created),
		Email:   normalize.Email(in.Email),
		Type:    in.Type,
		Message: in.Message,
		Created: created,
	}

	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}
	return msg, nil
}
