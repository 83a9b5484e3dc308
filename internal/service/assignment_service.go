package service

import (
	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignInput links a template to a client. Dates are YYYY-MM-DD; an empty
// StartDate means today.
type AssignInput struct {
	TemplateID primitive.ObjectID `json:"templateId"`
	StartDate  string             `json:"startDate"`
	EndDate    string             `json:"endDate"`
	Notes      string             `json:"notes"`
}

// AssignmentView is an assignment with its status derived for a given day.
type AssignmentView struct {
	domain.Assignment
	Status        domain.AssignmentStatus `json:"status"`
	TemplateName  string                  `json:"templateName,omitempty"`
	DaysRemaining int                     `json:"daysRemaining"`
}

type AssignmentService interface {
	// Assign never touches earlier assignments; several may coexist and the
	// current one is resolved by Current.
	Assign(ctx context.Context, trainerID, clientID primitive.ObjectID, in AssignInput, today civil.Date) (*AssignmentView, error)
	// Unassign removes the link only; the template stays.
	Unassign(ctx context.Context, trainerID, id primitive.ObjectID) error
	Pause(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*AssignmentView, error)
	Resume(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*AssignmentView, error)
	// ListForClient orders by latest start first. An empty kind lists both kinds.
	ListForClient(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) ([]AssignmentView, error)
	// Current is the assignment of kind with the latest start date, ties going
	// to the one created last.
	Current(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) (*AssignmentView, error)
}

// assignmentService implements the AssignmentService interface.
type assignmentService struct {
	clientRepo     repository.ClientRepository
	templateRepo   repository.TemplateRepository
	assignmentRepo repository.AssignmentRepository
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	clientRepo repository.ClientRepository,
	templateRepo repository.TemplateRepository,
	assignmentRepo repository.AssignmentRepository,
) AssignmentService {
	return &assignmentService{
		clientRepo:     clientRepo,
		templateRepo:   templateRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *assignmentService) Assign(ctx context.Context, trainerID, clientID primitive.ObjectID, in AssignInput, today civil.Date) (*AssignmentView, error) {
	verrs := ValidationErrors{}
	start := today
	if in.StartDate != "" {
		d, err := calendar.ParseLocalDate(in.StartDate)
		if err != nil {
			verrs.Add("startDate", "must be a date in YYYY-MM-DD format")
		}
		start = d
	}
	end, err := calendar.ParseLocalDate(in.EndDate)
	if err != nil {
		verrs.Add("endDate", "must be a date in YYYY-MM-DD format")
	} else if _, bad := verrs["startDate"]; !bad && end.Before(start) {
		verrs.Add("endDate", "must not be before the start date")
	}
	if in.TemplateID == primitive.NilObjectID {
		verrs.Add("templateId", "is required")
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.clientRepo.GetByID(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}
	template, err := s.templateRepo.GetByID(ctx, trainerID, in.TemplateID)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound)
	}

	assignment := &domain.Assignment{
		TrainerID:  trainerID,
		ClientID:   clientID,
		TemplateID: template.ID,
		Kind:       template.Kind,
		StartDate:  start,
		EndDate:    end,
		Notes:      strings.TrimSpace(in.Notes),
	}
	if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	log.Infof("assigned %s template %s to client %s", template.Kind, template.ID.Hex(), clientID.Hex())
	v := assignmentView(assignment, template.Name, today)
	return &v, nil
}

func (s *assignmentService) Unassign(ctx context.Context, trainerID, id primitive.ObjectID) error {
	if err := s.assignmentRepo.Delete(ctx, trainerID, id); err != nil {
		return mapNotFound(err, ErrAssignmentNotFound)
	}
	return nil
}

func (s *assignmentService) Pause(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*AssignmentView, error) {
	return s.setPaused(ctx, trainerID, id, true, today)
}

func (s *assignmentService) Resume(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*AssignmentView, error) {
	return s.setPaused(ctx, trainerID, id, false, today)
}

func (s *assignmentService) setPaused(ctx context.Context, trainerID, id primitive.ObjectID, paused bool, today civil.Date) (*AssignmentView, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, trainerID, id)
	if err != nil {
		return nil, mapNotFound(err, ErrAssignmentNotFound)
	}
	if assignment.Status(today) == domain.AssignmentCompleted {
		return nil, ValidationErrors{"status": "assignment already completed"}
	}

	if assignment.Paused != paused {
		if err := s.assignmentRepo.SetPaused(ctx, trainerID, id, paused); err != nil {
			return nil, mapNotFound(err, ErrAssignmentNotFound)
		}
		assignment.Paused = paused
	}

	v := assignmentView(assignment, s.templateName(ctx, trainerID, assignment.TemplateID), today)
	return &v, nil
}

func (s *assignmentService) ListForClient(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) ([]AssignmentView, error) {
	if kind != "" && !kind.IsValid() {
		return nil, ValidationErrors{"kind": "must be routine or nutrition"}
	}
	if _, err := s.clientRepo.GetByID(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	assignments, err := s.assignmentRepo.ListByClient(ctx, trainerID, clientID, kind)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	domain.SortAssignments(assignments)

	names := map[primitive.ObjectID]string{}
	views := make([]AssignmentView, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		name, ok := names[a.TemplateID]
		if !ok {
			name = s.templateName(ctx, trainerID, a.TemplateID)
			names[a.TemplateID] = name
		}
		views = append(views, assignmentView(a, name, today))
	}
	return views, nil
}

func (s *assignmentService) Current(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) (*AssignmentView, error) {
	if !kind.IsValid() {
		return nil, ValidationErrors{"kind": "must be routine or nutrition"}
	}
	views, err := s.ListForClient(ctx, trainerID, clientID, kind, today)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrAssignmentNotFound
	}
	return &views[0], nil
}

// templateName is informational; a missing template yields an empty name.
func (s *assignmentService) templateName(ctx context.Context, trainerID, templateID primitive.ObjectID) string {
	template, err := s.templateRepo.GetByID(ctx, trainerID, templateID)
	if err != nil {
		return ""
	}
	return template.Name
}

func assignmentView(a *domain.Assignment, templateName string, today civil.Date) AssignmentView {
	return AssignmentView{
		Assignment:    *a,
		Status:        a.Status(today),
		TemplateName:  templateName,
		DaysRemaining: calendar.DaysRemaining(a.EndDate, today),
	}
}
