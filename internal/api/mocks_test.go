package api

import (
	"context"
	"io"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/export"
	"alcyxob/gym-admin/internal/service"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clientServiceMock struct {
	mock.Mock
}

func (m *clientServiceMock) DeriveStatus(client *domain.Client, today civil.Date) domain.MembershipStatus {
	args := m.Called(client, today)
	return args.Get(0).(domain.MembershipStatus)
}

func (m *clientServiceMock) Register(ctx context.Context, trainerID primitive.ObjectID, in service.ClientInput, today civil.Date) (*service.ClientView, error) {
	args := m.Called(ctx, trainerID, in, today)
	view, _ := args.Get(0).(*service.ClientView)
	return view, args.Error(1)
}

func (m *clientServiceMock) Update(ctx context.Context, trainerID, clientID primitive.ObjectID, in service.ClientInput, today civil.Date) (*service.ClientView, error) {
	args := m.Called(ctx, trainerID, clientID, in, today)
	view, _ := args.Get(0).(*service.ClientView)
	return view, args.Error(1)
}

func (m *clientServiceMock) Get(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*service.ClientView, error) {
	args := m.Called(ctx, trainerID, clientID, today)
	view, _ := args.Get(0).(*service.ClientView)
	return view, args.Error(1)
}

func (m *clientServiceMock) List(ctx context.Context, trainerID primitive.ObjectID, status domain.MembershipStatus, today civil.Date) ([]service.ClientView, error) {
	args := m.Called(ctx, trainerID, status, today)
	views, _ := args.Get(0).([]service.ClientView)
	return views, args.Error(1)
}

func (m *clientServiceMock) Renew(ctx context.Context, trainerID, clientID primitive.ObjectID, months int, newStart *civil.Date, today civil.Date) (*service.ClientView, error) {
	args := m.Called(ctx, trainerID, clientID, months, newStart, today)
	view, _ := args.Get(0).(*service.ClientView)
	return view, args.Error(1)
}

func (m *clientServiceMock) CheckDuplicateIdentity(ctx context.Context, trainerID primitive.ObjectID, docType domain.DocumentType, docNumber string, excluding primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, trainerID, docType, docNumber, excluding)
	return args.Bool(0), args.Error(1)
}

func (m *clientServiceMock) Delete(ctx context.Context, trainerID, clientID primitive.ObjectID) (*service.DeleteResult, error) {
	args := m.Called(ctx, trainerID, clientID)
	result, _ := args.Get(0).(*service.DeleteResult)
	return result, args.Error(1)
}

func (m *clientServiceMock) ReminderFacts(ctx context.Context, trainerID, clientID primitive.ObjectID, today civil.Date) (*service.ReminderFacts, error) {
	args := m.Called(ctx, trainerID, clientID, today)
	facts, _ := args.Get(0).(*service.ReminderFacts)
	return facts, args.Error(1)
}

type measurementServiceMock struct {
	mock.Mock
}

func (m *measurementServiceMock) List(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.MeasurementRecord, error) {
	args := m.Called(ctx, trainerID, clientID)
	records, _ := args.Get(0).([]domain.MeasurementRecord)
	return records, args.Error(1)
}

func (m *measurementServiceMock) Latest(ctx context.Context, trainerID, clientID primitive.ObjectID) (*domain.MeasurementRecord, error) {
	args := m.Called(ctx, trainerID, clientID)
	record, _ := args.Get(0).(*domain.MeasurementRecord)
	return record, args.Error(1)
}

func (m *measurementServiceMock) Get(ctx context.Context, trainerID, id primitive.ObjectID) (*service.MeasurementWithPhotos, error) {
	args := m.Called(ctx, trainerID, id)
	record, _ := args.Get(0).(*service.MeasurementWithPhotos)
	return record, args.Error(1)
}

func (m *measurementServiceMock) Create(ctx context.Context, trainerID, clientID primitive.ObjectID, in service.MeasurementInput) (*domain.MeasurementRecord, error) {
	args := m.Called(ctx, trainerID, clientID, in)
	record, _ := args.Get(0).(*domain.MeasurementRecord)
	return record, args.Error(1)
}

func (m *measurementServiceMock) Update(ctx context.Context, trainerID, id primitive.ObjectID, in service.MeasurementInput) (*domain.MeasurementRecord, error) {
	args := m.Called(ctx, trainerID, id, in)
	record, _ := args.Get(0).(*domain.MeasurementRecord)
	return record, args.Error(1)
}

func (m *measurementServiceMock) Delete(ctx context.Context, trainerID, id primitive.ObjectID) (*service.DeleteResult, error) {
	args := m.Called(ctx, trainerID, id)
	result, _ := args.Get(0).(*service.DeleteResult)
	return result, args.Error(1)
}

// Save drains the pending photos so tests can assert on what was uploaded.
func (m *measurementServiceMock) Save(ctx context.Context, trainerID, clientID primitive.ObjectID, id *primitive.ObjectID, in service.MeasurementInput, photos []service.PendingPhoto) (*service.SaveResult, error) {
	received := map[domain.PhotoType]string{}
	for _, p := range photos {
		data, _ := io.ReadAll(p.File)
		received[p.Type] = string(data)
	}
	args := m.Called(ctx, trainerID, clientID, id, in, received)
	result, _ := args.Get(0).(*service.SaveResult)
	return result, args.Error(1)
}

type assignmentServiceMock struct {
	mock.Mock
}

func (m *assignmentServiceMock) Assign(ctx context.Context, trainerID, clientID primitive.ObjectID, in service.AssignInput, today civil.Date) (*service.AssignmentView, error) {
	args := m.Called(ctx, trainerID, clientID, in, today)
	view, _ := args.Get(0).(*service.AssignmentView)
	return view, args.Error(1)
}

func (m *assignmentServiceMock) Unassign(ctx context.Context, trainerID, id primitive.ObjectID) error {
	return m.Called(ctx, trainerID, id).Error(0)
}

func (m *assignmentServiceMock) Pause(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*service.AssignmentView, error) {
	args := m.Called(ctx, trainerID, id, today)
	view, _ := args.Get(0).(*service.AssignmentView)
	return view, args.Error(1)
}

func (m *assignmentServiceMock) Resume(ctx context.Context, trainerID, id primitive.ObjectID, today civil.Date) (*service.AssignmentView, error) {
	args := m.Called(ctx, trainerID, id, today)
	view, _ := args.Get(0).(*service.AssignmentView)
	return view, args.Error(1)
}

func (m *assignmentServiceMock) ListForClient(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) ([]service.AssignmentView, error) {
	args := m.Called(ctx, trainerID, clientID, kind, today)
	views, _ := args.Get(0).([]service.AssignmentView)
	return views, args.Error(1)
}

func (m *assignmentServiceMock) Current(ctx context.Context, trainerID, clientID primitive.ObjectID, kind domain.TemplateKind, today civil.Date) (*service.AssignmentView, error) {
	args := m.Called(ctx, trainerID, clientID, kind, today)
	view, _ := args.Get(0).(*service.AssignmentView)
	return view, args.Error(1)
}

type comparisonServiceMock struct {
	mock.Mock
}

func (m *comparisonServiceMock) Compare(ctx context.Context, trainerID, startID, endID primitive.ObjectID) (*service.ComparisonReport, error) {
	args := m.Called(ctx, trainerID, startID, endID)
	report, _ := args.Get(0).(*service.ComparisonReport)
	return report, args.Error(1)
}

type exportServiceMock struct {
	mock.Mock
}

func (m *exportServiceMock) Collect(ctx context.Context, trainerID primitive.ObjectID, today civil.Date) (*export.Dataset, error) {
	args := m.Called(ctx, trainerID, today)
	ds, _ := args.Get(0).(*export.Dataset)
	return ds, args.Error(1)
}
