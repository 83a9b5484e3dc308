package service

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"alcyxob/gym-admin/internal/storage"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// TemplateItemInput is one exercise or meal. An empty ID creates a new item.
type TemplateItemInput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Details string `json:"details"`
}

type TemplateInput struct {
	Kind        domain.TemplateKind `json:"kind"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Items       []TemplateItemInput `json:"items"`
}

type TemplateService interface {
	Create(ctx context.Context, trainerID primitive.ObjectID, in TemplateInput) (*domain.Template, error)
	Get(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Template, error)
	List(ctx context.Context, trainerID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error)
	// Update replaces the template contents. The kind cannot change once created.
	Update(ctx context.Context, trainerID, id primitive.ObjectID, in TemplateInput) (*domain.Template, error)
	// Delete is refused with ErrTemplateInUse while any client is assigned the template.
	Delete(ctx context.Context, trainerID, id primitive.ObjectID) (*DeleteResult, error)
	// UploadItemImage sets the reference image of a routine exercise.
	UploadItemImage(ctx context.Context, trainerID, templateID primitive.ObjectID, itemID string, file io.Reader) (*domain.Template, error)
}

// templateService implements the TemplateService interface.
type templateService struct {
	templateRepo   repository.TemplateRepository
	assignmentRepo repository.AssignmentRepository
	fileStorage    storage.FileStorage
	imagePolicy    UploadPolicy
	urlExpiry      time.Duration
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(
	templateRepo repository.TemplateRepository,
	assignmentRepo repository.AssignmentRepository,
	fileStorage storage.FileStorage,
	imagePolicy UploadPolicy,
	urlExpiry time.Duration,
) TemplateService {
	return &templateService{
		templateRepo:   templateRepo,
		assignmentRepo: assignmentRepo,
		fileStorage:    fileStorage,
		imagePolicy:    imagePolicy,
		urlExpiry:      urlExpiry,
	}
}

func (s *templateService) Create(ctx context.Context, trainerID primitive.ObjectID, in TemplateInput) (*domain.Template, error) {
	if !in.Kind.IsValid() {
		return nil, ValidationErrors{"kind": "must be routine or nutrition"}
	}
	template := &domain.Template{TrainerID: trainerID, Kind: in.Kind}
	if err := applyTemplateInput(template, in); err != nil {
		return nil, err
	}

	if _, err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (s *templateService) Get(ctx context.Context, trainerID, id primitive.ObjectID) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}
	s.signImages(ctx, template)
	return template, nil
}

func (s *templateService) List(ctx context.Context, trainerID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error) {
	if kind != "" && !kind.IsValid() {
		return nil, ValidationErrors{"kind": "must be routine or nutrition"}
	}
	templates, err := s.templateRepo.ListByTrainer(ctx, trainerID, kind)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (s *templateService) Update(ctx context.Context, trainerID, id primitive.ObjectID, in TemplateInput) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}
	if in.Kind != "" && in.Kind != template.Kind {
		return nil, ValidationErrors{"kind": "cannot be changed"}
	}

	previous := template.Items
	if err := applyTemplateInput(template, in); err != nil {
		return nil, err
	}

	// images of items that survived are carried over, the rest are dropped
	var stale []string
	for _, old := range previous {
		if old.ImageKey == "" {
			continue
		}
		if item := template.Item(old.ID); item != nil {
			item.ImageKey = old.ImageKey
		} else {
			stale = append(stale, old.ImageKey)
		}
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}
	for _, key := range stale {
		if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
			log.Warnf("delete stale exercise image %s: %s", key, err)
		}
	}

	s.signImages(ctx, template)
	return template, nil
}

func (s *templateService) Delete(ctx context.Context, trainerID, id primitive.ObjectID) (*DeleteResult, error) {
	template, err := s.templateRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}

	assigned, err := s.assignmentRepo.CountByTemplate(ctx, trainerID, id)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	if assigned > 0 {
		return nil, fmt.Errorf("%w (%d assignments)", ErrTemplateInUse, assigned)
	}

	if err := s.templateRepo.Delete(ctx, trainerID, id); err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}

	var warning error
	for _, item := range template.Items {
		if item.ImageKey == "" {
			continue
		}
		if err := s.fileStorage.DeleteObject(ctx, item.ImageKey); err != nil {
			warning = multierr.Append(warning, fmt.Errorf("image of %q could not be removed: %w", item.Name, err))
		}
	}
	return &DeleteResult{Warning: warning}, nil
}

func (s *templateService) UploadItemImage(ctx context.Context, trainerID, templateID primitive.ObjectID, itemID string, file io.Reader) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, trainerID, templateID)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}
	if template.Kind != domain.KindRoutine {
		return nil, ValidationErrors{"kind": "only routine exercises have reference images"}
	}
	item := template.Item(itemID)
	if item == nil {
		return nil, ValidationErrors{"itemId": "no such item in this template"}
	}

	upload, err := s.imagePolicy.Read(file)
	if err != nil {
		return nil, err
	}

	key := path.Join("exercise-images", trainerID.Hex(), templateID.Hex(), itemID)
	if err := s.fileStorage.PutObject(ctx, key, upload.ContentType, upload.Reader(), upload.Size()); err != nil {
		return nil, fmt.Errorf("store exercise image: %w", err)
	}

	item.ImageKey = key
	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}

	s.signImages(ctx, template)
	return template, nil
}

func (s *templateService) signImages(ctx context.Context, template *domain.Template) {
	for i := range template.Items {
		item := &template.Items[i]
		if item.ImageKey == "" {
			continue
		}
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, item.ImageKey, s.urlExpiry)
		if err != nil {
			log.Warnf("sign exercise image %s: %s", item.ImageKey, err)
			continue
		}
		item.ImageURL = url
	}
}

func applyTemplateInput(template *domain.Template, in TemplateInput) error {
	verrs := ValidationErrors{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		verrs.Add("name", "is required")
	}

	items := make([]domain.TemplateItem, 0, len(in.Items))
	seen := map[string]bool{}
	for i, it := range in.Items {
		itemName := strings.TrimSpace(it.Name)
		if itemName == "" {
			verrs.Add(fmt.Sprintf("items[%d].name", i), "is required")
			continue
		}
		id := strings.TrimSpace(it.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			verrs.Add(fmt.Sprintf("items[%d].id", i), "is duplicated")
			continue
		}
		seen[id] = true
		items = append(items, domain.TemplateItem{ID: id, Name: itemName, Details: strings.TrimSpace(it.Details)})
	}

	if err := verrs.Err(); err != nil {
		return err
	}
	template.Name = name
	template.Description = strings.TrimSpace(in.Description)
	template.Items = items
	return nil
}
