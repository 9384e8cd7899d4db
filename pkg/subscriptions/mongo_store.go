package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const subscriptionsCollection = "push_subscriptions"

// MongoStore is a document-store implementation of Store.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the push_subscriptions collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(subscriptionsCollection)}
}

// EnsureIndexes creates the unique endpoint index and the userId fan-out index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	})
	return err
}

func (s *MongoStore) Upsert(ctx context.Context, endpoint string, keys Keys, userID string) (string, error) {
	if endpoint == "" {
		return "", ErrInvalidEndpoint
	}

	set := bson.M{
		"endpoint": endpoint,
		"keys":     keys,
	}
	if userID != "" {
		set["userId"] = userID
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":       uuid.New().String(),
			"createdAt": time.Now(),
		},
	}

	var updated Subscription
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"endpoint": endpoint},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return "", err
	}

	return updated.ID, nil
}

func (s *MongoStore) DetachByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}

func (s *MongoStore) DetachAllForUser(ctx context.Context, userID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

func (s *MongoStore) ListForUser(ctx context.Context, userID string) ([]Subscription, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
