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

const clientCollectionName = "clients"

// mongoClientRepository implements repository.ClientRepository.
type mongoClientRepository struct {
	collection *mongo.Collection
}

// NewMongoClientRepository creates a new client repository backed by MongoDB.
func NewMongoClientRepository(db *mongo.Database) repository.ClientRepository {
	return &mongoClientRepository{
		collection: db.Collection(clientCollectionName),
	}
}

// Create inserts a new client. A second client with the same identity for the
// same trainer is rejected by the unique index with repository.ErrDuplicateKey.
func (r *mongoClientRepository) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	if client.TrainerID == primitive.NilObjectID || client.DocumentNumber == "" {
		return primitive.NilObjectID, errors.New("client requires trainerId and documentNumber")
	}

	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, client); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	return client.ID, nil
}

// GetByID retrieves one of the trainer's clients.
func (r *mongoClientRepository) GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Client, error) {
	var client domain.Client
	filter := bson.M{"_id": id, "trainerId": trainerID}

	err := r.collection.FindOne(ctx, filter).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindByDocument retrieves the trainer's clients holding the identity pair.
func (r *mongoClientRepository) FindByDocument(ctx context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string) ([]domain.Client, error) {
	filter := bson.M{
		"trainerId":      trainerID,
		"documentType":   docType,
		"documentNumber": domain.NormalizeDocumentNumber(docNumber),
	}
	return r.find(ctx, filter, nil)
}

// ListByTrainer retrieves all of the trainer's clients ordered by name.
func (r *mongoClientRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Client, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "fullName", Value: 1}})
	return r.find(ctx, bson.M{"trainerId": trainerID}, findOptions)
}

func (r *mongoClientRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.Client, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	clients := []domain.Client{}
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Update replaces the mutable fields of a client.
func (r *mongoClientRepository) Update(ctx context.Context, client *domain.Client) error {
	if client.ID == primitive.NilObjectID {
		return errors.New("client ID is required for update")
	}

	client.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"documentType":   client.DocumentType,
		"documentNumber": client.DocumentNumber,
		"fullName":       client.FullName,
		"phone":          client.Phone,
		"email":          client.Email,
		"startDate":      client.StartDate,
		"durationMonths": client.DurationMonths,
		"endDate":        client.EndDate,
		"updatedAt":      client.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]any{
		"initialWeight": client.InitialWeight,
		"height":        client.Height,
		"birthDate":     client.BirthDate,
		"medical":       client.Medical,
	}
	for key, value := range optional {
		if isNilPointer(value) {
			unset[key] = ""
		} else {
			set[key] = value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": client.ID, "trainerId": client.TrainerID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the client document only; dependents are removed by the service.
func (r *mongoClientRepository) Delete(ctx context.Context, trainerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureClientIndexes creates necessary indexes for the clients collection.
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// The identity pair is unique per trainer. This is the real guarantee
			// behind the service-level duplicate check.
			Keys: bson.D{
				{Key: "trainerId", Value: 1},
				{Key: "documentType", Value: 1},
				{Key: "documentNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "fullName", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
