package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// The client is configured with the registry from NewRegistry, so calendar
// dates round-trip as YYYY-MM-DD strings.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetRegistry(NewRegistry())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// returned per collection and do not stop the remaining ones.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	failed := map[string]error{}
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{trainerCollectionName, EnsureTrainerIndexes},
		{clientCollectionName, EnsureClientIndexes},
		{measurementCollectionName, EnsureMeasurementIndexes},
		{photoCollectionName, EnsurePhotoIndexes},
		{templateCollectionName, EnsureTemplateIndexes},
		{assignmentCollectionName, EnsureAssignmentIndexes},
	}
	for _, step := range steps {
		if err := step.ensure(ctx, db.Collection(step.collection)); err != nil {
			failed[step.collection] = err
		}
	}
	return failed
}
