package service

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/export"
	"alcyxob/gym-admin/internal/repository"
	"alcyxob/gym-admin/internal/storage"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExportService interface {
	// Collect gathers every row the trainer owns, statuses derived for today.
	Collect(ctx context.Context, trainerID primitive.ObjectID, today civil.Date) (*export.Dataset, error)
}

// exportService implements the ExportService interface.
type exportService struct {
	clients         ClientService
	measurementRepo repository.MeasurementRepository
	photoRepo       repository.PhotoRepository
	assignmentRepo  repository.AssignmentRepository
	templateRepo    repository.TemplateRepository
	fileStorage     storage.FileStorage
	urlExpiry       time.Duration
}

// NewExportService creates a new instance of exportService.
func NewExportService(
	clients ClientService,
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	assignmentRepo repository.AssignmentRepository,
	templateRepo repository.TemplateRepository,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
) ExportService {
	return &exportService{
		clients:         clients,
		measurementRepo: measurementRepo,
		photoRepo:       photoRepo,
		assignmentRepo:  assignmentRepo,
		templateRepo:    templateRepo,
		fileStorage:     fileStorage,
		urlExpiry:       urlExpiry,
	}
}

func (s *exportService) Collect(ctx context.Context, trainerID primitive.ObjectID, today civil.Date) (*export.Dataset, error) {
	views, err := s.clients.List(ctx, trainerID, "", today)
	if err != nil {
		return nil, err
	}
	ds := &export.Dataset{Clients: make([]export.ClientRow, 0, len(views))}
	for _, v := range views {
		ds.Clients = append(ds.Clients, export.ClientRow{Client: v.Client, Status: v.Status, DaysRemaining: v.DaysRemaining})
	}

	ds.Measurements, err = s.measurementRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	domain.SortMeasurements(ds.Measurements)

	assignments, err := s.assignmentRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	domain.SortAssignments(assignments)

	templates, err := s.templateRepo.ListByTrainer(ctx, trainerID, "")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(templates))
	for _, t := range templates {
		names[t.ID] = t.Name
	}
	for _, a := range assignments {
		ds.Assignments = append(ds.Assignments, export.AssignmentRow{
			Assignment:   a,
			Status:       a.Status(today),
			TemplateName: names[a.TemplateID],
		})
	}

	ds.Photos, err = s.photoRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	for i := range ds.Photos {
		p := &ds.Photos[i]
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, p.ObjectKey, s.urlExpiry)
		if err != nil {
			log.Warnf("export: sign photo %s: %s", p.ID.Hex(), err)
			continue
		}
		p.URL = url
	}
	return ds, nil
}
