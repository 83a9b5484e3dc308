package repository

import (
	"alcyxob/gym-admin/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TrainerRepository stores trainer accounts.
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Trainer, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
}

// ClientRepository stores clients. Every query is scoped to the owning trainer.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Client, error)
	// FindByDocument returns all of the trainer's clients holding the given identity pair.
	FindByDocument(ctx context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string) ([]domain.Client, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) error
}

// MeasurementRepository stores measurement snapshots.
type MeasurementRepository interface {
	Create(ctx context.Context, record *domain.MeasurementRecord) (primitive.ObjectID, error)
	GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.MeasurementRecord, error)
	// ListByClient returns the client's records, most recent date first.
	ListByClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.MeasurementRecord, error)
	Update(ctx context.Context, record *domain.MeasurementRecord) error
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) error
}

// PhotoRepository stores progress photo metadata, one row per slot.
type PhotoRepository interface {
	// Upsert inserts or replaces the row for (MeasurementID, PhotoType) and returns its id.
	Upsert(ctx context.Context, photo *domain.ProgressPhoto) (primitive.ObjectID, error)
	GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.ProgressPhoto, error)
	ListByMeasurement(ctx context.Context, trainerID, measurementID primitive.ObjectID) ([]domain.ProgressPhoto, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.ProgressPhoto, error)
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) error
}

// TemplateRepository stores routine and nutrition plan templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Template, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) error
}

// AssignmentRepository stores client/template links.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Assignment, error)
	// ListByClient filters by kind unless kind is empty.
	ListByClient(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Assignment, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Assignment, error)
	CountByTemplate(ctx context.Context, trainerID, templateID primitive.ObjectID) (int64, error)
	SetPaused(ctx context.Context, trainerID, id primitive.ObjectID, paused bool) error
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) error
	DeleteByClient(ctx context.Context, trainerID, clientID primitive.ObjectID) (int64, error)
}
