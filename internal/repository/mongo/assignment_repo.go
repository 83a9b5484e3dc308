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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.ClientID == primitive.NilObjectID || assignment.TemplateID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId and templateId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, assignment); err != nil {
		return primitive.NilObjectID, err
	}
	return assignment.ID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	filter := bson.M{"_id": id, "trainerId": trainerID}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// ListByClient retrieves a client's assignments, latest start first.
func (r *mongoAssignmentRepository) ListByClient(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Assignment, error) {
	filter := bson.M{"trainerId": trainerID, "clientId": clientID}
	if kind != "" {
		filter["kind"] = kind
	}
	return r.find(ctx, filter)
}

// ListByTrainer retrieves every assignment the trainer owns.
func (r *mongoAssignmentRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID})
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M) ([]domain.Assignment, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "startDate", Value: -1},
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	assignments := []domain.Assignment{}
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// CountByTemplate counts the links that still reference a template.
func (r *mongoAssignmentRepository) CountByTemplate(ctx context.Context, trainerID, templateID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"trainerId": trainerID, "templateId": templateID})
}

// SetPaused flips the paused flag of an assignment.
func (r *mongoAssignmentRepository) SetPaused(ctx context.Context, trainerID, id primitive.ObjectID, paused bool) error {
	filter := bson.M{"_id": id, "trainerId": trainerID}
	update := bson.M{"$set": bson.M{"paused": paused, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single assignment. The template is untouched.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, trainerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByClient removes every assignment of a client.
func (r *mongoAssignmentRepository) DeleteByClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"trainerId": trainerID, "clientId": clientID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trainerId", Value: 1},
				{Key: "clientId", Value: 1},
				{Key: "kind", Value: 1},
				{Key: "startDate", Value: -1},
			},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "templateId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
