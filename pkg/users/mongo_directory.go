package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const usersCollection = "users"

// MongoDirectory is a read-only Directory backed by the platform's users collection.
type MongoDirectory struct {
	coll *mongo.Collection
}

// NewMongoDirectory creates a directory reading from the given database.
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{coll: db.Collection(usersCollection)}
}

func (d *MongoDirectory) Resolve(ctx context.Context, userID string) (*User, error) {
	var user User
	err := d.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
