package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clock hands out strictly increasing creation times so ordering by
// creation is deterministic in tests.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type trainerRepoMock struct {
	mu       sync.Mutex
	trainers map[primitive.ObjectID]domain.Trainer
}

func newTrainerRepoMock() *trainerRepoMock {
	return &trainerRepoMock{trainers: map[primitive.ObjectID]domain.Trainer{}}
}

func (r *trainerRepoMock) Create(_ context.Context, trainer *domain.Trainer) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.Email == trainer.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	trainer.ID = primitive.NewObjectID()
	r.trainers[trainer.ID] = *trainer
	return trainer.ID, nil
}

func (r *trainerRepoMock) GetByEmail(_ context.Context, email string) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.Email == email {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *trainerRepoMock) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type clientRepoMock struct {
	mu      sync.Mutex
	clock   *clock
	clients map[primitive.ObjectID]domain.Client
}

func newClientRepoMock(c *clock) *clientRepoMock {
	return &clientRepoMock{clock: c, clients: map[primitive.ObjectID]domain.Client{}}
}

func (r *clientRepoMock) identityTaken(c *domain.Client) bool {
	for _, other := range r.clients {
		if other.ID != c.ID && other.TrainerID == c.TrainerID &&
			other.DocumentType == c.DocumentType && other.DocumentNumber == c.DocumentNumber {
			return true
		}
	}
	return false
}

func (r *clientRepoMock) Create(_ context.Context, client *domain.Client) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identityTaken(client) {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	client.ID = primitive.NewObjectID()
	client.CreatedAt = r.clock.Now()
	client.UpdatedAt = client.CreatedAt
	r.clients[client.ID] = *client
	return client.ID, nil
}

func (r *clientRepoMock) GetByID(_ context.Context, trainerID, id primitive.ObjectID) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.TrainerID != trainerID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *clientRepoMock) FindByDocument(_ context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Client
	for _, c := range r.clients {
		if c.TrainerID == trainerID && c.DocumentType == docType && c.DocumentNumber == domain.NormalizeDocumentNumber(docNumber) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *clientRepoMock) ListByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Client{}
	for _, c := range r.clients {
		if c.TrainerID == trainerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *clientRepoMock) Update(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.clients[client.ID]
	if !ok || existing.TrainerID != client.TrainerID {
		return repository.ErrNotFound
	}
	if r.identityTaken(client) {
		return repository.ErrDuplicateKey
	}
	client.UpdatedAt = r.clock.Now()
	r.clients[client.ID] = *client
	return nil
}

func (r *clientRepoMock) Delete(_ context.Context, trainerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

type measurementRepoMock struct {
	mu      sync.Mutex
	clock   *clock
	records map[primitive.ObjectID]domain.MeasurementRecord
}

func newMeasurementRepoMock(c *clock) *measurementRepoMock {
	return &measurementRepoMock{clock: c, records: map[primitive.ObjectID]domain.MeasurementRecord{}}
}

func (r *measurementRepoMock) Create(_ context.Context, record *domain.MeasurementRecord) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = primitive.NewObjectID()
	record.CreatedAt = r.clock.Now()
	record.UpdatedAt = record.CreatedAt
	r.records[record.ID] = *record
	return record.ID, nil
}

func (r *measurementRepoMock) GetByID(_ context.Context, trainerID, id primitive.ObjectID) (*domain.MeasurementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[id]
	if !ok || m.TrainerID != trainerID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

// list results come back in map order; callers are expected to sort
func (r *measurementRepoMock) ListByClient(_ context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.MeasurementRecord{}
	for _, m := range r.records {
		if m.TrainerID == trainerID && m.ClientID == clientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *measurementRepoMock) ListByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.MeasurementRecord{}
	for _, m := range r.records {
		if m.TrainerID == trainerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *measurementRepoMock) Update(_ context.Context, record *domain.MeasurementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[record.ID]
	if !ok || existing.TrainerID != record.TrainerID {
		return repository.ErrNotFound
	}
	record.UpdatedAt = r.clock.Now()
	r.records[record.ID] = *record
	return nil
}

func (r *measurementRepoMock) Delete(_ context.Context, trainerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[id]
	if !ok || m.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

type photoRepoMock struct {
	mu     sync.Mutex
	photos map[primitive.ObjectID]domain.ProgressPhoto
}

func newPhotoRepoMock() *photoRepoMock {
	return &photoRepoMock{photos: map[primitive.ObjectID]domain.ProgressPhoto{}}
}

func (r *photoRepoMock) Upsert(_ context.Context, photo *domain.ProgressPhoto) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.photos {
		if p.MeasurementID == photo.MeasurementID && p.PhotoType == photo.PhotoType {
			photo.ID = id
			r.photos[id] = *photo
			return id, nil
		}
	}
	photo.ID = primitive.NewObjectID()
	r.photos[photo.ID] = *photo
	return photo.ID, nil
}

func (r *photoRepoMock) GetByID(_ context.Context, trainerID, id primitive.ObjectID) (*domain.ProgressPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.TrainerID != trainerID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *photoRepoMock) ListByMeasurement(_ context.Context, trainerID, measurementID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ProgressPhoto{}
	for _, p := range r.photos {
		if p.TrainerID == trainerID && p.MeasurementID == measurementID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *photoRepoMock) ListByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ProgressPhoto{}
	for _, p := range r.photos {
		if p.TrainerID == trainerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *photoRepoMock) Delete(_ context.Context, trainerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.photos, id)
	return nil
}

func (r *photoRepoMock) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.photos)
}

type templateRepoMock struct {
	mu        sync.Mutex
	templates map[primitive.ObjectID]domain.Template
}

func newTemplateRepoMock() *templateRepoMock {
	return &templateRepoMock{templates: map[primitive.ObjectID]domain.Template{}}
}

func (r *templateRepoMock) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = primitive.NewObjectID()
	r.templates[template.ID] = cloneTemplate(*template)
	return template.ID, nil
}

func (r *templateRepoMock) GetByID(_ context.Context, trainerID, id primitive.ObjectID) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.TrainerID != trainerID {
		return nil, repository.ErrNotFound
	}
	t = cloneTemplate(t)
	return &t, nil
}

func (r *templateRepoMock) ListByTrainer(_ context.Context, trainerID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Template{}
	for _, t := range r.templates {
		if t.TrainerID == trainerID && (kind == "" || t.Kind == kind) {
			out = append(out, cloneTemplate(t))
		}
	}
	return out, nil
}

func (r *templateRepoMock) Update(_ context.Context, template *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.templates[template.ID]
	if !ok || existing.TrainerID != template.TrainerID {
		return repository.ErrNotFound
	}
	r.templates[template.ID] = cloneTemplate(*template)
	return nil
}

func (r *templateRepoMock) Delete(_ context.Context, trainerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

// cloneTemplate copies the items so stored templates never alias caller slices.
func cloneTemplate(t domain.Template) domain.Template {
	t.Items = append([]domain.TemplateItem(nil), t.Items...)
	for i := range t.Items {
		t.Items[i].ImageURL = ""
	}
	return t
}

type assignmentRepoMock struct {
	mu          sync.Mutex
	clock       *clock
	assignments map[primitive.ObjectID]domain.Assignment
}

func newAssignmentRepoMock(c *clock) *assignmentRepoMock {
	return &assignmentRepoMock{clock: c, assignments: map[primitive.ObjectID]domain.Assignment{}}
}

func (r *assignmentRepoMock) Create(_ context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment.ID = primitive.NewObjectID()
	assignment.CreatedAt = r.clock.Now()
	assignment.UpdatedAt = assignment.CreatedAt
	r.assignments[assignment.ID] = *assignment
	return assignment.ID, nil
}

func (r *assignmentRepoMock) GetByID(_ context.Context, trainerID, id primitive.ObjectID) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.TrainerID != trainerID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *assignmentRepoMock) ListByClient(_ context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Assignment{}
	for _, a := range r.assignments {
		if a.TrainerID == trainerID && a.ClientID == clientID && (kind == "" || a.Kind == kind) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *assignmentRepoMock) ListByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Assignment{}
	for _, a := range r.assignments {
		if a.TrainerID == trainerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *assignmentRepoMock) CountByTemplate(_ context.Context, trainerID, templateID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.assignments {
		if a.TrainerID == trainerID && a.TemplateID == templateID {
			n++
		}
	}
	return n, nil
}

func (r *assignmentRepoMock) SetPaused(_ context.Context, trainerID, id primitive.ObjectID, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	a.Paused = paused
	r.assignments[id] = a
	return nil
}

func (r *assignmentRepoMock) Delete(_ context.Context, trainerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.assignments, id)
	return nil
}

func (r *assignmentRepoMock) DeleteByClient(_ context.Context, trainerID, clientID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.assignments {
		if a.TrainerID == trainerID && a.ClientID == clientID {
			delete(r.assignments, id)
			n++
		}
	}
	return n, nil
}

// memStorage is an in-memory FileStorage. Keys listed in failDelete refuse deletion.
type memStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	types      map[string]string
	failDelete map[string]bool
	failPut    map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects:    map[string][]byte{},
		types:      map[string]string{},
		failDelete: map[string]bool{},
		failPut:    map[string]bool{},
	}
}

var errStorageDown = errors.New("storage unavailable")

func (s *memStorage) PutObject(_ context.Context, objectKey string, contentType string, body io.Reader, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut[objectKey] {
		return errStorageDown
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.objects[objectKey] = buf.Bytes()
	s.types[objectKey] = contentType
	return nil
}

func (s *memStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func (s *memStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete[objectKey] {
		return errStorageDown
	}
	delete(s.objects, objectKey)
	return nil
}

func (s *memStorage) has(objectKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectKey]
	return ok
}
