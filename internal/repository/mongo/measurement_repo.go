package mongo

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const measurementCollectionName = "measurements"

// newest date first; createdAt and _id break ties deterministically
var measurementSort = bson.D{
	{Key: "date", Value: -1},
	{Key: "createdAt", Value: -1},
	{Key: "_id", Value: -1},
}

// mongoMeasurementRepository implements repository.MeasurementRepository.
type mongoMeasurementRepository struct {
	collection *mongo.Collection
}

// NewMongoMeasurementRepository creates a new measurement repository backed by MongoDB.
func NewMongoMeasurementRepository(db *mongo.Database) repository.MeasurementRepository {
	return &mongoMeasurementRepository{
		collection: db.Collection(measurementCollectionName),
	}
}

// Create inserts a new measurement snapshot.
func (r *mongoMeasurementRepository) Create(ctx context.Context, record *domain.MeasurementRecord) (primitive.ObjectID, error) {
	if record.ClientID == primitive.NilObjectID || record.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("measurement requires clientId and trainerId")
	}

	record.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return primitive.NilObjectID, err
	}
	return record.ID, nil
}

// GetByID retrieves one of the trainer's measurement records.
func (r *mongoMeasurementRepository) GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.MeasurementRecord, error) {
	var record domain.MeasurementRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "trainerId": trainerID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByClient retrieves the client's records, most recent first.
func (r *mongoMeasurementRepository) ListByClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID, "clientId": clientID})
}

// ListByTrainer retrieves every record the trainer owns.
func (r *mongoMeasurementRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID})
}

func (r *mongoMeasurementRepository) find(ctx context.Context, filter bson.M) ([]domain.MeasurementRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(measurementSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []domain.MeasurementRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Update replaces the stored snapshot. Fields left nil are removed from the document.
func (r *mongoMeasurementRepository) Update(ctx context.Context, record *domain.MeasurementRecord) error {
	if record.ID == primitive.NilObjectID {
		return errors.New("measurement ID is required for update")
	}

	record.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": record.ID, "trainerId": record.TrainerID}

	result, err := r.collection.ReplaceOne(ctx, filter, record)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a measurement record. Photo rows are removed by the caller.
func (r *mongoMeasurementRepository) Delete(ctx context.Context, trainerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMeasurementIndexes creates necessary indexes for the measurements collection.
func EnsureMeasurementIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trainerId", Value: 1},
				{Key: "clientId", Value: 1},
				{Key: "date", Value: -1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
