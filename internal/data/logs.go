package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/uboh-app/uboh-server/internal/apperr"
)

// LogsStore persists log entries. Logs are schemaless: a required message
// plus whatever extra fields the caller attached.
type LogsStore struct {
	coll *mongo.Collection
}

// NewLogsStore returns a LogsStore using the given collection.
func NewLogsStore(coll *mongo.Collection) *LogsStore {
	return &LogsStore{coll: coll}
}

// Create stamps the log with the server-side creation time and writes it
// under a unique key. The caller's fields are stored verbatim.
func (s *LogsStore) Create(ctx context.Context, fields map[string]any) (string, error) {
	msg, ok := fields["message"].(string)
	if !ok || msg == "" {
		return "", apperr.Validationf("Invalid log object")
	}

	created := Stamp(time.Now())
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["created"] = created
	doc["_id"] = LogKey(created)

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", apperr.Internal(err)
	}
	return doc["_id"].(string), nil
}
