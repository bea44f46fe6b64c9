package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

// Collections
const (
	UsersCollection       = "users"
	AssignmentsCollection = "assignments"
)

// DB is an open connection to the application database.
type DB struct {
	Client *mongo.Client
	*mongo.Database
}

// ClientOptions builds the driver options for conf.
func ClientOptions(conf *core.Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetConnectTimeout(conf.Database.ConnectTimeout).
		SetServerSelectionTimeout(conf.Database.ConnectTimeout)
	if conf.Database.User != "" {
		opts.SetAuth(options.Credential{Username: conf.Database.User, Password: conf.Database.Password})
	}
	return opts
}

// Open connects to the database and waits for it to answer.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	client, err := mongo.Connect(ctx, ClientOptions(conf))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &DB{Client: client, Database: client.Database(conf.Database.Name)}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// IndexModels returns the indexes of every collection.
func IndexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AssignmentsCollection: {
			{Keys: bson.D{{Key: "due_date", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "completed", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
	}
}

// EnsureIndexes creates missing indexes; existing ones are left alone.
func EnsureIndexes(ctx context.Context, db *DB) error {
	for coll, models := range IndexModels() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return errors.Wrap(db.Client.Disconnect(ctx), "disconnecting from database")
}
