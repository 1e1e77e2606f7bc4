package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/normalize"
)

// ScoresStore persists append-only score entries.
type ScoresStore struct {
	coll *mongo.Collection
}

// NewScoresStore returns a ScoresStore using the given collection.
func NewScoresStore(coll *mongo.Collection) *ScoresStore {
	return &ScoresStore{coll: coll}
}

// ScoreInput is the caller-supplied part of a score entry. Score arrives
// as a decoded JSON value so its type can be checked.
type ScoreInput struct {
	Name  string `json:"name"`
	Score any    `json:"score"`
	Email string `json:"email,omitempty"`
}

// Create validates the input, stamps it and writes it at the derived key.
func (s *ScoresStore) Create(ctx context.Context, in ScoreInput) (*Score, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("Invalid score object")
	}
	value, ok := toFloat(in.Score)
	if !ok {
		return nil, apperr.Validationf("score should be number")
	}

	created := Stamp(time.Now())
	score := &Score{
		ID:      ScoreKey(in.Email, created, value),
		Name:    in.Name,
		Score:   value,
		Email:   normalize.Email(in.Email),
		Created: created,
	}

	if _, err := s.coll.InsertOne(ctx, score); err != nil {
		return nil, apperr.Internal(err)
	}
	return score, nil
}
