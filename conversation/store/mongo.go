package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/reportflow/conversation"
	"github.com/sweetpotato0/reportflow/errors"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/report"
)

// MongoStore keeps conversation states in a MongoDB collection, one document
// per user.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns local-development defaults.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "reportflow",
		Collection: "conversations",
	}
}

type mongoState struct {
	UserID    string             `bson:"_id"`
	Report    string             `bson:"report"`
	Fields    map[string]string  `bson:"fields"`
	Status    int                `bson:"status"`
	History   []*message.Message `bson:"history"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// NewMongoStore connects and ensures the updated_at index used by Evict.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*conversation.State, error) {
	var doc mongoState
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get conversation: %w", err)
	}
	return &conversation.State{
		UserID:    doc.UserID,
		Report:    report.ID(doc.Report),
		Fields:    doc.Fields,
		Status:    report.Status(doc.Status),
		History:   doc.History,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *MongoStore) Put(ctx context.Context, state *conversation.State) error {
	if state == nil || state.UserID == "" {
		return errors.ErrInvalidInput
	}
	doc := mongoState{
		UserID:    state.UserID,
		Report:    string(state.Report),
		Fields:    state.Fields,
		Status:    int(state.Status),
		History:   state.History,
		UpdatedAt: state.UpdatedAt,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": state.UserID}, doc, opts); err != nil {
		return fmt.Errorf("mongo put conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("mongo delete conversation: %w", err)
	}
	return nil
}

func (s *MongoStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("mongo evict conversations: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
