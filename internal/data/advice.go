package data

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/uboh-app/uboh-server/internal/apperr"
	"github.com/uboh-app/uboh-server/internal/validate"
)

// AdviceStore persists advice entries. Advice documents keep whatever
// fields the caller sent; Mongo assigns the identifier.
type AdviceStore struct {
	coll *mongo.Collection
}

// NewAdviceStore returns an AdviceStore using the given collection.
func NewAdviceStore(coll *mongo.Collection) *AdviceStore {
	return &AdviceStore{coll: coll}
}

// AddBatch validates each candidate independently. Invalid items are
// returned annotated with their violations and never written; valid items
// are written one by one, and every write completes before AddBatch
// returns, so the response reflects persisted state. Partial success is a
// normal outcome, not an error.
func (s *AdviceStore) AddBatch(ctx context.Context, candidates []map[string]any) ([]map[string]any, error) {
	unprocessed := []map[string]any{}
	for _, c := range candidates {
		violations := validate.Advice(c["likes"], c["advice"], c["author"], c["category"])
		if len(violations) > 0 {
			annotated := map[string]any{}
			for k, v := range c {
				annotated[k] = v
			}
			annotated["validationResult"] = violations
			unprocessed = append(unprocessed, annotated)
			continue
		}
		if _, err := s.coll.InsertOne(ctx, bson.M(c)); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return unprocessed, nil
}

// ListAll scans the advice collection and returns each document as
// {id, ...fields}. An empty collection yields an empty list.
func (s *AdviceStore) ListAll(ctx context.Context) ([]map[string]any, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer cursor.Close(ctx)

	list := []map[string]any{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.Internal(err)
		}
		item := map[string]any{}
		for k, v := range doc {
			if k == "_id" {
				continue
			}
			item[k] = v
		}
		if id, ok := doc["_id"].(bson.ObjectID); ok {
			item["id"] = id.Hex()
		}
		list = append(list, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// IncrementLikes atomically adds delta to the likes counter of the advice
// with the given id and returns the new value. Mongo's $inc closes the
// read-modify-write race between concurrent increments.
func (s *AdviceStore) IncrementLikes(ctx context.Context, id string, delta float64) (float64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, apperr.NotFoundf("advice does not exist")
	}

	var updated bson.M
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"likes": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperr.NotFoundf("advice does not exist")
		}
		return 0, apperr.Internal(err)
	}

	likes, _ := toFloat(updated["likes"])
	return likes, nil
}

// toFloat widens the numeric types BSON can hand back for a number field.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
