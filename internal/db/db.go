// Package db manages the MongoDB connection and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes the service collections. The
// underlying client is thread-safe and meant to be created once at process
// start and shared across requests.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, pings it to verify the connection, and returns
// a Client addressing the uboh_db database.
func New(ctx context.Context, mongoURI string) (*Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database("uboh_db"),
	}, nil
}

// MessagesCollection returns the contact messages collection.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection("messages")
}

// LogsCollection returns the logs collection.
func (c *Client) LogsCollection() *mongo.Collection {
	return c.db.Collection("logs")
}

// AdviceCollection returns the advice collection.
func (c *Client) AdviceCollection() *mongo.Collection {
	return c.db.Collection("advice")
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// ScoresCollection returns the scores collection.
func (c *Client) ScoresCollection() *mongo.Collection {
	return c.db.Collection("scores")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// Users are keyed by email in _id, which Mongo already keeps unique;
	// an explicit email index is still useful for phone-only updates done
	// by filter and keeps lookups fast if the key scheme ever changes.
	usersIndex := mongo.IndexModel{
		Keys:    map[string]int{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// Advice is listed in categories by clients; scores are read as
	// leaderboards ordered by value.
	adviceIndex := mongo.IndexModel{
		Keys: map[string]int{"category": 1},
	}
	if _, err := c.AdviceCollection().Indexes().CreateOne(ctx, adviceIndex); err != nil {
		return fmt.Errorf("failed to create advice index: %w", err)
	}

	scoresIndex := mongo.IndexModel{
		Keys: map[string]int{"score": -1},
	}
	if _, err := c.ScoresCollection().Indexes().CreateOne(ctx, scoresIndex); err != nil {
		return fmt.Errorf("failed to create scores index: %w", err)
	}

	return nil
}
