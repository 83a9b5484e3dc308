package service

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"alcyxob/gym-admin/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

type PhotoService interface {
	// Upload stores file in the photoType slot of a measurement, replacing
	// whatever occupied the slot.
	Upload(ctx context.Context, trainerID, measurementID primitive.ObjectID, photoType domain.PhotoType, file io.Reader) (*domain.ProgressPhoto, error)
	FetchForMeasurement(ctx context.Context, trainerID, measurementID primitive.ObjectID) ([]domain.ProgressPhoto, error)
	Delete(ctx context.Context, trainerID, photoID primitive.ObjectID) (*DeleteResult, error)
}

// photoService implements the PhotoService interface.
type photoService struct {
	measurementRepo repository.MeasurementRepository
	photoRepo       repository.PhotoRepository
	fileStorage     storage.FileStorage
	policy          UploadPolicy
	urlExpiry       time.Duration
	now             func() time.Time
}

// NewPhotoService creates a new instance of photoService.
func NewPhotoService(
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	fileStorage storage.FileStorage,
	policy UploadPolicy,
	urlExpiry time.Duration,
) PhotoService {
	return &photoService{
		measurementRepo: measurementRepo,
		photoRepo:       photoRepo,
		fileStorage:     fileStorage,
		policy:          policy,
		urlExpiry:       urlExpiry,
		now:             time.Now,
	}
}

func (s *photoService) Upload(ctx context.Context, trainerID, measurementID primitive.ObjectID, photoType domain.PhotoType, file io.Reader) (*domain.ProgressPhoto, error) {
	if !photoType.IsValid() {
		return nil, ValidationErrors{"photoType": "must be one of frontal, lateral, posterior"}
	}

	record, err := s.measurementRepo.GetByID(ctx, trainerID, measurementID)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}

	upload, err := s.policy.Read(file)
	if err != nil {
		return nil, err
	}

	key := domain.PhotoObjectKey(record.ClientID, record.ID, photoType)
	if err := s.fileStorage.PutObject(ctx, key, upload.ContentType, upload.Reader(), upload.Size()); err != nil {
		return nil, fmt.Errorf("store %s photo: %w", photoType, err)
	}

	photo := &domain.ProgressPhoto{
		MeasurementID: record.ID,
		ClientID:      record.ClientID,
		TrainerID:     trainerID,
		PhotoType:     photoType,
		ObjectKey:     key,
		ContentType:   upload.ContentType,
		Size:          upload.Size(),
		UploadedAt:    s.now().UTC(),
	}
	if _, err := s.photoRepo.Upsert(ctx, photo); err != nil {
		return nil, fmt.Errorf("save %s photo metadata: %w", photoType, err)
	}

	s.sign(ctx, photo)
	return photo, nil
}

// FetchForMeasurement returns the occupied slots in frontal, lateral, posterior order.
func (s *photoService) FetchForMeasurement(ctx context.Context, trainerID, measurementID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	set, err := s.photoSet(ctx, trainerID, measurementID)
	if err != nil {
		return nil, err
	}
	return set.Ordered(), nil
}

func (s *photoService) photoSet(ctx context.Context, trainerID, measurementID primitive.ObjectID) (domain.PhotoSet, error) {
	rows, err := s.photoRepo.ListByMeasurement(ctx, trainerID, measurementID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	set := domain.NewPhotoSet(rows)
	for t, p := range set {
		s.sign(ctx, &p)
		set[t] = p
	}
	return set, nil
}

// Delete removes the storage object and then the row. A storage failure does
// not keep the row; it is reported as a warning.
func (s *photoService) Delete(ctx context.Context, trainerID, photoID primitive.ObjectID) (*DeleteResult, error) {
	photo, err := s.photoRepo.GetByID(ctx, trainerID, photoID)
	if err != nil {
		return nil, mapNotFound(err, ErrPhotoNotFound)
	}

	warning, err := removePhotos(ctx, s.photoRepo, s.fileStorage, trainerID, []domain.ProgressPhoto{*photo})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Warning: warning}, nil
}

// sign fills in a time-limited URL. Signing failures leave URL empty.
func (s *photoService) sign(ctx context.Context, photo *domain.ProgressPhoto) {
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, photo.ObjectKey, s.urlExpiry)
	if err != nil {
		log.Warnf("sign url for photo %s: %s", photo.ID.Hex(), err)
		return
	}
	photo.URL = url
}

// removePhotos deletes the storage objects best-effort and the rows strictly.
// Storage failures are aggregated into the returned warning; a row failure
// aborts with an error.
func removePhotos(ctx context.Context, photoRepo repository.PhotoRepository, fileStorage storage.FileStorage, trainerID primitive.ObjectID, photos []domain.ProgressPhoto) (warning error, err error) {
	for _, p := range photos {
		if delErr := fileStorage.DeleteObject(ctx, p.ObjectKey); delErr != nil {
			log.Warnf("delete %s photo object of measurement %s: %s", p.PhotoType, p.MeasurementID.Hex(), delErr)
			warning = multierr.Append(warning, fmt.Errorf("%s photo file could not be removed: %w", p.PhotoType, delErr))
		}
		if err := photoRepo.Delete(ctx, trainerID, p.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return warning, fmt.Errorf("delete %s photo row: %w", p.PhotoType, err)
		}
	}
	return warning, nil
}
