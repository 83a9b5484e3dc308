package service

import (
	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"alcyxob/gym-admin/internal/storage"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// MeasurementInput carries the editable fields of a snapshot. Date is YYYY-MM-DD.
type MeasurementInput struct {
	Date string `json:"date"`
	domain.Measurements
	Objetivo string `json:"objetivo"`
	Notas    string `json:"notas"`
}

// PendingPhoto is a photo to attach once the snapshot fields are committed.
type PendingPhoto struct {
	Type domain.PhotoType
	File io.Reader
}

// MeasurementWithPhotos is a snapshot together with its occupied photo slots.
type MeasurementWithPhotos struct {
	domain.MeasurementRecord
	Photos []domain.ProgressPhoto `json:"photos"`
}

type MeasurementService interface {
	// List returns the client's snapshots, most recent date first; records on
	// the same date are ordered latest created first.
	List(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error)
	Latest(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.MeasurementRecord, error)
	Get(ctx context.Context, trainerID, id primitive.ObjectID) (*MeasurementWithPhotos, error)
	Create(ctx context.Context, trainerID, clientID primitive.ObjectID, in MeasurementInput) (*domain.MeasurementRecord, error)
	Update(ctx context.Context, trainerID, id primitive.ObjectID, in MeasurementInput) (*domain.MeasurementRecord, error)
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) (*DeleteResult, error)
	// Save creates (id nil) or updates a snapshot and then uploads photos.
	// Photo failures never undo the field write.
	Save(ctx context.Context, trainerID, clientID primitive.ObjectID, id *primitive.ObjectID, in MeasurementInput, photos []PendingPhoto) (*SaveResult, error)
}

// measurementService implements the MeasurementService interface.
type measurementService struct {
	clientRepo      repository.ClientRepository
	measurementRepo repository.MeasurementRepository
	photoRepo       repository.PhotoRepository
	fileStorage     storage.FileStorage
	photos          PhotoService
}

// NewMeasurementService creates a new instance of measurementService.
func NewMeasurementService(
	clientRepo repository.ClientRepository,
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	fileStorage storage.FileStorage,
	photos PhotoService,
) MeasurementService {
	return &measurementService{
		clientRepo:      clientRepo,
		measurementRepo: measurementRepo,
		photoRepo:       photoRepo,
		fileStorage:     fileStorage,
		photos:          photos,
	}
}

func (s *measurementService) List(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	if _, err := s.clientRepo.GetByID(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	records, err := s.measurementRepo.ListByClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	domain.SortMeasurements(records)
	return records, nil
}

func (s *measurementService) Latest(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.MeasurementRecord, error) {
	records, err := s.List(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrMeasurementNotFound
	}
	return &records[0], nil
}

func (s *measurementService) Get(ctx context.Context, trainerID, id primitive.ObjectID) (*MeasurementWithPhotos, error) {
	record, err := s.measurementRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}
	photos, err := s.photos.FetchForMeasurement(ctx, trainerID, id)
	if err != nil {
		return nil, err
	}
	return &MeasurementWithPhotos{MeasurementRecord: *record, Photos: photos}, nil
}

func (s *measurementService) Create(ctx context.Context, trainerID, clientID primitive.ObjectID, in MeasurementInput) (*domain.MeasurementRecord, error) {
	record := &domain.MeasurementRecord{ClientID: clientID, TrainerID: trainerID}
	if err := applyMeasurementInput(record, in); err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	if _, err := s.measurementRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}
	return record, nil
}

// Update keeps the record id; photos stay attached.
func (s *measurementService) Update(ctx context.Context, trainerID, id primitive.ObjectID, in MeasurementInput) (*domain.MeasurementRecord, error) {
	record, err := s.measurementRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}
	if err := applyMeasurementInput(record, in); err != nil {
		return nil, err
	}

	if err := s.measurementRepo.Update(ctx, record); err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}
	return record, nil
}

// Delete removes the photos first (objects best-effort, then rows) and the record last.
func (s *measurementService) Delete(ctx context.Context, trainerID, id primitive.ObjectID) (*DeleteResult, error) {
	record, err := s.measurementRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}

	warning, err := deleteMeasurement(ctx, s.measurementRepo, s.photoRepo, s.fileStorage, record)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Warning: warning}, nil
}

func (s *measurementService) Save(ctx context.Context, trainerID, clientID primitive.ObjectID, id *primitive.ObjectID, in MeasurementInput, photos []PendingPhoto) (*SaveResult, error) {
	seen := map[domain.PhotoType]bool{}
	for _, p := range photos {
		if !p.Type.IsValid() {
			return nil, ValidationErrors{"photoType": fmt.Sprintf("unknown photo type %q", p.Type)}
		}
		if seen[p.Type] {
			return nil, ValidationErrors{"photoType": fmt.Sprintf("more than one %s photo", p.Type)}
		}
		seen[p.Type] = true
	}

	var (
		record *domain.MeasurementRecord
		err    error
	)
	if id == nil {
		record, err = s.Create(ctx, trainerID, clientID, in)
	} else {
		existing, getErr := s.measurementRepo.GetByID(ctx, trainerID, *id)
		if getErr != nil {
			return nil, mapNotFound(getErr, ErrMeasurementNotFound)
		}
		if existing.ClientID != clientID {
			return nil, ErrMeasurementNotFound
		}
		record, err = s.Update(ctx, trainerID, *id, in)
	}
	if err != nil {
		return nil, err
	}

	var warning error
	for _, p := range photos {
		if _, upErr := s.photos.Upload(ctx, trainerID, record.ID, p.Type, p.File); upErr != nil {
			log.Warnf("measurement %s saved but %s photo failed: %s", record.ID.Hex(), p.Type, upErr)
			warning = multierr.Append(warning, fmt.Errorf("%s photo was not saved: %w", p.Type, upErr))
		}
	}

	attached, err := s.photos.FetchForMeasurement(ctx, trainerID, record.ID)
	if err != nil {
		warning = multierr.Append(warning, err)
	}
	return &SaveResult{
		Measurement: &MeasurementWithPhotos{MeasurementRecord: *record, Photos: attached},
		Warning:     warning,
	}, nil
}

// deleteMeasurement is shared with the client cascade.
func deleteMeasurement(
	ctx context.Context,
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	fileStorage storage.FileStorage,
	record *domain.MeasurementRecord,
) (warning error, err error) {
	photos, err := photoRepo.ListByMeasurement(ctx, record.TrainerID, record.ID)
	if err != nil {
		return nil, fmt.Errorf("list photos of measurement %s: %w", record.ID.Hex(), err)
	}

	warning, err = removePhotos(ctx, photoRepo, fileStorage, record.TrainerID, photos)
	if err != nil {
		return warning, err
	}

	if err := measurementRepo.Delete(ctx, record.TrainerID, record.ID); err != nil {
		return warning, mapNotFound(err, ErrMeasurementNotFound)
	}
	return warning, nil
}

func applyMeasurementInput(record *domain.MeasurementRecord, in MeasurementInput) error {
	verrs := ValidationErrors{}

	date, err := calendar.ParseLocalDate(in.Date)
	if err != nil {
		verrs.Add("date", "must be a date in YYYY-MM-DD format")
	}

	for _, field := range domain.MeasurementSchema {
		v := field.Value(&in.Measurements)
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			verrs.Add(field.Key, "must be a number")
		} else if *v < 0 {
			verrs.Add(field.Key, "must not be negative")
		}
	}
	if err := verrs.Err(); err != nil {
		return err
	}

	record.Date = date
	record.Measurements = in.Measurements
	record.Objetivo = strings.TrimSpace(in.Objetivo)
	record.Notas = strings.TrimSpace(in.Notas)
	return nil
}
