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

const photoCollectionName = "progress_photos"

// mongoPhotoRepository implements repository.PhotoRepository.
type mongoPhotoRepository struct {
	collection *mongo.Collection
}

// NewMongoPhotoRepository creates a new progress photo repository backed by MongoDB.
func NewMongoPhotoRepository(db *mongo.Database) repository.PhotoRepository {
	return &mongoPhotoRepository{
		collection: db.Collection(photoCollectionName),
	}
}

// Upsert writes the metadata of a photo slot. An existing row for the same
// measurement and type keeps its id and gets the new object details.
func (r *mongoPhotoRepository) Upsert(ctx context.Context, photo *domain.ProgressPhoto) (primitive.ObjectID, error) {
	if photo.MeasurementID == primitive.NilObjectID || !photo.PhotoType.IsValid() {
		return primitive.NilObjectID, errors.New("photo requires measurementId and a valid photoType")
	}
	if photo.UploadedAt.IsZero() {
		photo.UploadedAt = time.Now().UTC()
	}

	filter := bson.M{
		"trainerId":     photo.TrainerID,
		"measurementId": photo.MeasurementID,
		"photoType":     photo.PhotoType,
	}
	update := bson.M{
		"$set": bson.M{
			"clientId":    photo.ClientID,
			"objectKey":   photo.ObjectKey,
			"contentType": photo.ContentType,
			"size":        photo.Size,
			"uploadedAt":  photo.UploadedAt,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.ProgressPhoto
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return primitive.NilObjectID, err
	}
	photo.ID = stored.ID
	return stored.ID, nil
}

// GetByID retrieves one of the trainer's photo rows.
func (r *mongoPhotoRepository) GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.ProgressPhoto, error) {
	var photo domain.ProgressPhoto
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "trainerId": trainerID}).Decode(&photo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &photo, nil
}

// ListByMeasurement retrieves the photo rows of a measurement.
func (r *mongoPhotoRepository) ListByMeasurement(ctx context.Context, trainerID, measurementID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID, "measurementId": measurementID})
}

// ListByTrainer retrieves every photo row the trainer owns.
func (r *mongoPhotoRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID})
}

func (r *mongoPhotoRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgressPhoto, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	photos := []domain.ProgressPhoto{}
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// Delete removes a photo row.
func (r *mongoPhotoRepository) Delete(ctx context.Context, trainerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePhotoIndexes creates necessary indexes for the progress photos collection.
func EnsurePhotoIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// one row per slot
			Keys:    bson.D{{Key: "measurementId", Value: 1}, {Key: "photoType", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
