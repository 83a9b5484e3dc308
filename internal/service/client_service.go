package service

import (
	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"alcyxob/gym-admin/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// DefaultExpiringWindowDays is used when the configured window is negative.
const DefaultExpiringWindowDays = 7

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ClientInput carries the editable fields of a client. Dates are YYYY-MM-DD.
type ClientInput struct {
	DocumentType   domain.DocumentType   `json:"documentType"`
	DocumentNumber string                `json:"documentNumber"`
	FullName       string                `json:"fullName"`
	Phone          string                `json:"phone"`
	Email          string                `json:"email"`
	StartDate      string                `json:"startDate"`
	DurationMonths int                   `json:"durationMonths"`
	InitialWeight  *float64              `json:"initialWeight"`
	Height         *float64              `json:"height"`
	BirthDate      string                `json:"birthDate"`
	Medical        *domain.MedicalRecord `json:"medical"`
}

// ClientView is a client with its status derived for a given day.
type ClientView struct {
	domain.Client
	Status        domain.MembershipStatus `json:"status"`
	DaysRemaining int                     `json:"daysRemaining"`
}

// ReminderFacts is what a renewal reminder message is composed from.
type ReminderFacts struct {
	ClientID      primitive.ObjectID      `json:"clientId"`
	FullName      string                  `json:"fullName"`
	PhoneDigits   string                  `json:"phoneDigits"`
	EndDate       string                  `json:"endDate"`
	DaysRemaining int                     `json:"daysRemaining"`
	Status        domain.MembershipStatus `json:"status"`
}

type ClientService interface {
	DeriveStatus(client *domain.Client, today civil.Date) domain.MembershipStatus
	Register(ctx context.Context, trainerID primitive.ObjectID, in ClientInput, today civil.Date) (*ClientView, error)
	Update(ctx context.Context, trainerID, clientID primitive.ObjectID, in ClientInput, today civil.Date) (*ClientView, error)
	Get(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*ClientView, error)
	// List returns the trainer's clients by name. An empty status lists all of them.
	List(ctx context.Context, trainerID primitive.ObjectID, status domain.MembershipStatus, today civil.Date) ([]ClientView, error)
	// Renew restarts the membership at newStart (today when nil); the previous
	// end date plays no part in the new one.
	Renew(ctx context.Context, trainerID, clientID primitive.ObjectID, months int, newStart *civil.Date, today civil.Date) (*ClientView, error)
	// CheckDuplicateIdentity reports whether a client other than excluding
	// already holds the document. Pass primitive.NilObjectID to exclude nobody.
	CheckDuplicateIdentity(ctx context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string, excluding primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) (*DeleteResult, error)
	ReminderFacts(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*ReminderFacts, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	clientRepo         repository.ClientRepository
	measurementRepo    repository.MeasurementRepository
	photoRepo          repository.PhotoRepository
	assignmentRepo     repository.AssignmentRepository
	fileStorage        storage.FileStorage
	expiringWindowDays int
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	clientRepo repository.ClientRepository,
	measurementRepo repository.MeasurementRepository,
	photoRepo repository.PhotoRepository,
	assignmentRepo repository.AssignmentRepository,
	fileStorage storage.FileStorage,
	expiringWindowDays int,
) ClientService {
	if expiringWindowDays < 0 {
		expiringWindowDays = DefaultExpiringWindowDays
	}
	return &clientService{
		clientRepo:         clientRepo,
		measurementRepo:    measurementRepo,
		photoRepo:          photoRepo,
		assignmentRepo:     assignmentRepo,
		fileStorage:        fileStorage,
		expiringWindowDays: expiringWindowDays,
	}
}

func (s *clientService) DeriveStatus(client *domain.Client, today civil.Date) domain.MembershipStatus {
	return client.Status(today, s.expiringWindowDays)
}

func (s *clientService) view(client *domain.Client, today civil.Date) ClientView {
	return ClientView{
		Client:        *client,
		Status:        s.DeriveStatus(client, today),
		DaysRemaining: calendar.DaysRemaining(client.EndDate, today),
	}
}

func (s *clientService) Register(ctx context.Context, trainerID primitive.ObjectID, in ClientInput, today civil.Date) (*ClientView, error) {
	client := &domain.Client{TrainerID: trainerID}
	if err := applyClientInput(client, in, today); err != nil {
		return nil, err
	}

	dup, err := s.CheckDuplicateIdentity(ctx, trainerID, client.DocumentType, client.DocumentNumber, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, duplicateIdentityError()
	}

	if _, err := s.clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, duplicateIdentityError()
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	log.Infof("registered client %s for trainer %s, membership ends %s", client.ID.Hex(), trainerID.Hex(), calendar.FormatLocalDate(client.EndDate))
	v := s.view(client, today)
	return &v, nil
}

func (s *clientService) Update(ctx context.Context, trainerID, clientID primitive.ObjectID, in ClientInput, today civil.Date) (*ClientView, error) {
	client, err := s.clientRepo.GetByID(ctx, trainerID, clientID)
	if err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}
	if in.StartDate == "" {
		in.StartDate = calendar.FormatLocalDate(client.StartDate)
	}
	if err := applyClientInput(client, in, today); err != nil {
		return nil, err
	}

	dup, err := s.CheckDuplicateIdentity(ctx, trainerID, client.DocumentType, client.DocumentNumber, client.ID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, duplicateIdentityError()
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, duplicateIdentityError()
		}
		return nil, mapNotFound(err, ErrClientNotFound)
	}
	v := s.view(client, today)
	return &v, nil
}

func (s *clientService) Get(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*ClientView, error) {
	client, err := s.clientRepo.GetByID(ctx, trainerID, clientID)
	if err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}
	v := s.view(client, today)
	return &v, nil
}

func (s *clientService) List(ctx context.Context, trainerID primitive.ObjectID, status domain.MembershipStatus, today civil.Date) ([]ClientView, error) {
	if status != "" && !status.IsValid() {
		return nil, ValidationErrors{"status": "must be one of active, expiring, expired"}
	}

	clients, err := s.clientRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	views := make([]ClientView, 0, len(clients))
	for i := range clients {
		v := s.view(&clients[i], today)
		if status == "" || v.Status == status {
			views = append(views, v)
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return strings.ToLower(views[i].FullName) < strings.ToLower(views[j].FullName)
	})
	return views, nil
}

func (s *clientService) Renew(ctx context.Context, trainerID, clientID primitive.ObjectID, months int, newStart *civil.Date, today civil.Date) (*ClientView, error) {
	if !validDuration(months) {
		return nil, ValidationErrors{"durationMonths": durationMessage}
	}
	if newStart != nil && !newStart.IsValid() {
		return nil, ValidationErrors{"startDate": "invalid date"}
	}

	client, err := s.clientRepo.GetByID(ctx, trainerID, clientID)
	if err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	start := today
	if newStart != nil {
		start = *newStart
	}
	client.SetMembership(start, months)

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	log.Infof("renewed client %s: %s to %s", client.ID.Hex(), calendar.FormatLocalDate(client.StartDate), calendar.FormatLocalDate(client.EndDate))
	v := s.view(client, today)
	return &v, nil
}

func (s *clientService) CheckDuplicateIdentity(ctx context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string, excluding primitive.ObjectID) (bool, error) {
	docType = domain.NormalizeDocumentType(docType)
	docNumber = domain.NormalizeDocumentNumber(docNumber)
	if docNumber == "" {
		return false, nil
	}

	matches, err := s.clientRepo.FindByDocument(ctx, trainerID, docType, docNumber)
	if err != nil {
		return false, fmt.Errorf("check document: %w", err)
	}
	for _, c := range matches {
		if c.ID != excluding {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the client with everything hanging off it: measurements and
// their photos, then assignments, then the client row. Storage failures only
// produce a warning.
func (s *clientService) Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) (*DeleteResult, error) {
	if _, err := s.clientRepo.GetByID(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	records, err := s.measurementRepo.ListByClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, fmt.Errorf("list measurements of client %s: %w", clientID.Hex(), err)
	}

	var warning error
	for i := range records {
		w, err := deleteMeasurement(ctx, s.measurementRepo, s.photoRepo, s.fileStorage, &records[i])
		warning = multierr.Append(warning, w)
		if err != nil {
			return nil, err
		}
	}

	removed, err := s.assignmentRepo.DeleteByClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, fmt.Errorf("delete assignments of client %s: %w", clientID.Hex(), err)
	}

	if err := s.clientRepo.Delete(ctx, trainerID, clientID); err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	log.Infof("deleted client %s with %d measurements and %d assignments", clientID.Hex(), len(records), removed)
	return &DeleteResult{Warning: warning}, nil
}

func (s *clientService) ReminderFacts(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*ReminderFacts, error) {
	client, err := s.clientRepo.GetByID(ctx, trainerID, clientID)
	if err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}
	return &ReminderFacts{
		ClientID:      client.ID,
		FullName:      client.FullName,
		PhoneDigits:   client.PhoneDigits(),
		EndDate:       calendar.FormatDisplay(client.EndDate),
		DaysRemaining: calendar.DaysRemaining(client.EndDate, today),
		Status:        s.DeriveStatus(client, today),
	}, nil
}

var durationMessage = fmt.Sprintf("must be between %d and %d", domain.MinDurationMonths, domain.MaxDurationMonths)

func validDuration(months int) bool {
	return months >= domain.MinDurationMonths && months <= domain.MaxDurationMonths
}

// normalizePhone drops the separators people type into phone numbers.
func normalizePhone(p string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(strings.TrimSpace(p))
}

func applyClientInput(client *domain.Client, in ClientInput, today civil.Date) error {
	verrs := ValidationErrors{}

	docType := domain.NormalizeDocumentType(in.DocumentType)
	if !docType.IsValid() {
		verrs.Add("documentType", "must be one of V, E, P, J")
	}
	docNumber := domain.NormalizeDocumentNumber(in.DocumentNumber)
	if docNumber == "" {
		verrs.Add("documentNumber", "is required")
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		verrs.Add("fullName", "is required")
	}
	phone := normalizePhone(in.Phone)
	if !phonePattern.MatchString(phone) {
		verrs.Add("phone", "must have 7 to 15 digits, optionally starting with +")
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			verrs.Add("email", "is not a valid address")
		}
	}

	start := today
	if in.StartDate != "" {
		d, err := calendar.ParseLocalDate(in.StartDate)
		if err != nil {
			verrs.Add("startDate", "must be a date in YYYY-MM-DD format")
		}
		start = d
	}
	if !validDuration(in.DurationMonths) {
		verrs.Add("durationMonths", durationMessage)
	}

	var birthDate *civil.Date
	if in.BirthDate != "" {
		d, err := calendar.ParseLocalDate(in.BirthDate)
		switch {
		case err != nil:
			verrs.Add("birthDate", "must be a date in YYYY-MM-DD format")
		case d.After(today):
			verrs.Add("birthDate", "must not be in the future")
		default:
			birthDate = &d
		}
	}
	if in.InitialWeight != nil && *in.InitialWeight <= 0 {
		verrs.Add("initialWeight", "must be positive")
	}
	if in.Height != nil && *in.Height <= 0 {
		verrs.Add("height", "must be positive")
	}

	if err := verrs.Err(); err != nil {
		return err
	}

	client.DocumentType = docType
	client.DocumentNumber = docNumber
	client.FullName = fullName
	client.Phone = phone
	client.Email = email
	client.InitialWeight = in.InitialWeight
	client.Height = in.Height
	client.BirthDate = birthDate
	client.Medical = nil
	if in.Medical.HasAnyFlag() {
		medical := *in.Medical
		medical.Details = strings.TrimSpace(medical.Details)
		client.Medical = &medical
	}
	client.SetMembership(start, in.DurationMonths)
	return nil
}
