package mongo

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerCollectionName = "trainers"

// mongoTrainerRepository implements repository.TrainerRepository.
type mongoTrainerRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerRepository creates a new trainer repository backed by MongoDB.
func NewMongoTrainerRepository(db *mongo.Database) repository.TrainerRepository {
	return &mongoTrainerRepository{
		collection: db.Collection(trainerCollectionName),
	}
}

// Create inserts a new trainer account.
func (r *mongoTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error) {
	if trainer.Email == "" || trainer.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("trainer email and password hash are required")
	}

	trainer.ID = primitive.NewObjectID()
	trainer.Email = strings.ToLower(strings.TrimSpace(trainer.Email))
	now := time.Now().UTC()
	trainer.CreatedAt = now
	trainer.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, trainer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	return trainer.ID, nil
}

// GetByEmail retrieves a trainer by email address.
func (r *mongoTrainerRepository) GetByEmail(ctx context.Context, email string) (*domain.Trainer, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByID retrieves a trainer by id.
func (r *mongoTrainerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoTrainerRepository) findOne(ctx context.Context, filter bson.M) (*domain.Trainer, error) {
	var trainer domain.Trainer
	err := r.collection.FindOne(ctx, filter).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &trainer, nil
}

// EnsureTrainerIndexes creates necessary indexes for the trainers collection.
func EnsureTrainerIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
