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

const templateCollectionName = "templates"

// mongoTemplateRepository implements repository.TemplateRepository.
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// Create inserts a new routine or nutrition template.
func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	if template.TrainerID == primitive.NilObjectID || template.Name == "" {
		return primitive.NilObjectID, errors.New("template requires trainerId and name")
	}

	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	if template.Items == nil {
		template.Items = []domain.TemplateItem{}
	}

	if _, err := r.collection.InsertOne(ctx, template); err != nil {
		return primitive.NilObjectID, err
	}
	return template.ID, nil
}

// GetByID retrieves one of the trainer's templates.
func (r *mongoTemplateRepository) GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Template, error) {
	var template domain.Template
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "trainerId": trainerID}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// ListByTrainer retrieves the trainer's templates ordered by name, optionally of one kind.
func (r *mongoTemplateRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error) {
	filter := bson.M{"trainerId": trainerID}
	if kind != "" {
		filter["kind"] = kind
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.Template{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces a template document.
func (r *mongoTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	if template.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}

	template.UpdatedAt = time.Now().UTC()
	if template.Items == nil {
		template.Items = []domain.TemplateItem{}
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": template.ID, "trainerId": template.TrainerID}, template)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a template.
func (r *mongoTemplateRepository) Delete(ctx context.Context, trainerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTemplateIndexes creates necessary indexes for the templates collection.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "kind", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
