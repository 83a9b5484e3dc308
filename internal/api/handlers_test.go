package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/export"
	"alcyxob/gym-admin/internal/service"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
)

const testSecret = "test-secret"

var testToday = civil.Date{Year: 2024, Month: time.March, Day: 10}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type testServer struct {
	router    *gin.Engine
	trainerID primitive.ObjectID
	token     string
}

func newTestServer(t *testing.T, services Services) *testServer {
	t.Helper()
	router := gin.New()
	SetupRoutes(router, testSecret, func() civil.Date { return testToday }, services)

	trainerID := primitive.NewObjectID()
	return &testServer{
		router:    router,
		trainerID: trainerID,
		token:     signToken(t, trainerID.Hex(), testSecret, time.Hour),
	}
}

func signToken(t *testing.T, trainerID, secret string, ttl time.Duration) string {
	t.Helper()
	claims := &service.Claims{
		TrainerID: trainerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) doJSON(method, path, body string) *httptest.ResponseRecorder {
	return s.do(method, path, "application/json", strings.NewReader(body))
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, Services{})

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"MissingHeader", "", http.StatusUnauthorized},
		{"NotBearer", "Token abc", http.StatusUnauthorized},
		{"GarbageToken", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"WrongSecret", "Bearer " + signToken(t, srv.trainerID.Hex(), "other-secret", time.Hour), http.StatusUnauthorized},
		{"Expired", "Bearer " + signToken(t, srv.trainerID.Hex(), testSecret, -time.Minute), http.StatusUnauthorized},
		{"NotAnObjectID", "Bearer " + signToken(t, "trainer-1", testSecret, time.Hour), http.StatusUnauthorized},
		{"Valid", "Bearer " + srv.token, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			srv.router.ServeHTTP(rr, req)
			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}

	rr := srv.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.JSONEq(t, fmt.Sprintf(`{"trainerId":%q}`, srv.trainerID.Hex()), rr.Body.String())
}

func TestRespondError_StatusMapping(t *testing.T) {
	testCases := []struct {
		err            error
		expectedStatus int
	}{
		{service.ValidationErrors{"fullName": "is required"}, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrDuplicateIdentity, service.ValidationErrors{"documentNumber": "taken"}), http.StatusConflict},
		{service.ErrClientNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrMeasurementNotFound), http.StatusNotFound},
		{service.ErrPhotoNotFound, http.StatusNotFound},
		{service.ErrTemplateNotFound, http.StatusNotFound},
		{service.ErrAssignmentNotFound, http.StatusNotFound},
		{fmt.Errorf("%w (2 assignments)", service.ErrTemplateInUse), http.StatusConflict},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrFileTypeRejected, http.StatusUnsupportedMediaType},
		{service.ErrTrainerAlreadyExists, http.StatusConflict},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestClientHandler_CreateDuplicate(t *testing.T) {
	clients := &clientServiceMock{}
	srv := newTestServer(t, Services{Clients: clients})

	dup := fmt.Errorf("%w: %w", service.ErrDuplicateIdentity, service.ValidationErrors{"documentNumber": "a client with this document is already registered"})
	clients.On("Register", mock.Anything, srv.trainerID, mock.MatchedBy(func(in service.ClientInput) bool {
		return in.DocumentNumber == "12345678" && in.DurationMonths == 1
	}), testToday).Return(nil, dup).Once()

	rr := srv.doJSON(http.MethodPost, "/api/v1/clients", `{"documentType":"V","documentNumber":"12345678","fullName":"Ana","phone":"04121234567","durationMonths":1}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "documentNumber")
	clients.AssertExpectations(t)
}

func TestClientHandler_ListAndRenew(t *testing.T) {
	clients := &clientServiceMock{}
	srv := newTestServer(t, Services{Clients: clients})

	clients.On("List", mock.Anything, srv.trainerID, domain.MembershipExpiring, testToday).Return(nil, nil).Once()
	rr := srv.do(http.MethodGet, "/api/v1/clients?status=EXPIRING", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	clientID := primitive.NewObjectID()
	newStart := civil.Date{Year: 2024, Month: time.April, Day: 1}
	view := &service.ClientView{Client: domain.Client{ID: clientID, EndDate: civil.Date{Year: 2024, Month: time.July, Day: 1}}, Status: domain.MembershipActive}
	clients.On("Renew", mock.Anything, srv.trainerID, clientID, 3, &newStart, testToday).Return(view, nil).Once()

	rr = srv.doJSON(http.MethodPost, "/api/v1/clients/"+clientID.Hex()+"/renew", `{"durationMonths":3,"startDate":"2024-04-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"endDate":"2024-07-01"`)

	rr = srv.doJSON(http.MethodPost, "/api/v1/clients/"+clientID.Hex()+"/renew", `{"durationMonths":3,"startDate":"01/04/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(http.MethodGet, "/api/v1/clients/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	clients.AssertExpectations(t)
}

func TestClientHandler_DeleteReportsWarnings(t *testing.T) {
	clients := &clientServiceMock{}
	srv := newTestServer(t, Services{Clients: clients})

	clientID := primitive.NewObjectID()
	warning := multierr.Append(errors.New("frontal photo could not be removed"), errors.New("lateral photo could not be removed"))
	clients.On("Delete", mock.Anything, srv.trainerID, clientID).Return(&service.DeleteResult{Warning: warning}, nil).Once()

	rr := srv.do(http.MethodDelete, "/api/v1/clients/"+clientID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"warnings":["frontal photo could not be removed","lateral photo could not be removed"]}`, rr.Body.String())
}

func TestClientHandler_CheckDuplicate(t *testing.T) {
	clients := &clientServiceMock{}
	srv := newTestServer(t, Services{Clients: clients})

	editing := primitive.NewObjectID()
	clients.On("CheckDuplicateIdentity", mock.Anything, srv.trainerID, domain.DocumentV, "123", editing).Return(true, nil).Once()

	rr := srv.do(http.MethodGet, "/api/v1/clients/duplicate?documentType=v&documentNumber=123&excluding="+editing.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"duplicate":true}`, rr.Body.String())

	rr = srv.do(http.MethodGet, "/api/v1/clients/duplicate?documentType=V", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	clients.AssertExpectations(t)
}

func TestMeasurementHandler_MultipartSave(t *testing.T) {
	measurements := &measurementServiceMock{}
	srv := newTestServer(t, Services{Measurements: measurements})
	clientID := primitive.NewObjectID()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", `{"date":"2024-03-01","peso":80.5,"objetivo":"bajar grasa"}`))
	part, err := mw.CreateFormFile("frontal", "front.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("front-bytes"))
	require.NoError(t, err)
	part, err = mw.CreateFormFile("lateral", "side.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("side-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	saved := &service.MeasurementWithPhotos{MeasurementRecord: domain.MeasurementRecord{ID: primitive.NewObjectID(), ClientID: clientID}}
	measurements.On("Save", mock.Anything, srv.trainerID, clientID, (*primitive.ObjectID)(nil),
		mock.MatchedBy(func(in service.MeasurementInput) bool {
			return in.Date == "2024-03-01" && in.Peso != nil && *in.Peso == 80.5 && in.Objetivo == "bajar grasa"
		}),
		map[domain.PhotoType]string{domain.PhotoFrontal: "front-bytes", domain.PhotoLateral: "side-bytes"},
	).Return(&service.SaveResult{Measurement: saved, Warning: errors.New("lateral photo: storage unavailable")}, nil).Once()

	rr := srv.do(http.MethodPost, "/api/v1/clients/"+clientID.Hex()+"/measurements", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp SaveMeasurementResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, saved.ID, resp.Measurement.ID)
	assert.Equal(t, []string{"lateral photo: storage unavailable"}, resp.Warnings)
	measurements.AssertExpectations(t)
}

func TestMeasurementHandler_JSONUpdate(t *testing.T) {
	measurements := &measurementServiceMock{}
	srv := newTestServer(t, Services{Measurements: measurements})
	clientID, id := primitive.NewObjectID(), primitive.NewObjectID()

	measurements.On("Save", mock.Anything, srv.trainerID, clientID, &id, mock.Anything, map[domain.PhotoType]string{}).
		Return(nil, service.ValidationErrors{"peso": "must not be negative"}).Once()

	rr := srv.doJSON(http.MethodPut, "/api/v1/clients/"+clientID.Hex()+"/measurements/"+id.Hex(), `{"date":"2024-03-01","peso":-1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"peso":"must not be negative"`)

	measurements.On("Latest", mock.Anything, srv.trainerID, clientID).Return(nil, service.ErrMeasurementNotFound).Once()
	rr = srv.do(http.MethodGet, "/api/v1/clients/"+clientID.Hex()+"/measurements/latest", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	measurements.AssertExpectations(t)
}

func TestAssignmentHandler(t *testing.T) {
	assignments := &assignmentServiceMock{}
	srv := newTestServer(t, Services{Assignments: assignments})
	clientID, templateID := primitive.NewObjectID(), primitive.NewObjectID()

	in := service.AssignInput{TemplateID: templateID, EndDate: "2024-04-10"}
	view := &service.AssignmentView{Assignment: domain.Assignment{ID: primitive.NewObjectID(), TemplateID: templateID}, Status: domain.AssignmentActive}
	assignments.On("Assign", mock.Anything, srv.trainerID, clientID, in, testToday).Return(view, nil).Once()

	rr := srv.doJSON(http.MethodPost, "/api/v1/clients/"+clientID.Hex()+"/assignments", fmt.Sprintf(`{"templateId":%q,"endDate":"2024-04-10"}`, templateID.Hex()))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"active"`)

	rr = srv.doJSON(http.MethodPost, "/api/v1/clients/"+clientID.Hex()+"/assignments", `{"templateId":"nope","endDate":"2024-04-10"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assignments.On("Current", mock.Anything, srv.trainerID, clientID, domain.KindNutrition, testToday).Return(nil, service.ErrAssignmentNotFound).Once()
	rr = srv.do(http.MethodGet, "/api/v1/clients/"+clientID.Hex()+"/assignments/current?kind=nutrition", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.do(http.MethodGet, "/api/v1/clients/"+clientID.Hex()+"/assignments?kind=cardio", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assignments.On("Unassign", mock.Anything, srv.trainerID, view.ID).Return(nil).Once()
	rr = srv.do(http.MethodDelete, "/api/v1/assignments/"+view.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assignments.AssertExpectations(t)
}

func TestReportHandler_Compare(t *testing.T) {
	comparisons := &comparisonServiceMock{}
	srv := newTestServer(t, Services{Comparisons: comparisons})
	startID, endID := primitive.NewObjectID(), primitive.NewObjectID()

	report := &service.ComparisonReport{ClientName: "Ana", Rows: []service.FieldDelta{{Key: "peso", DeltaText: "-2"}}}
	comparisons.On("Compare", mock.Anything, srv.trainerID, startID, endID).Return(report, nil).Once()

	rr := srv.do(http.MethodGet, fmt.Sprintf("/api/v1/comparisons?start=%s&end=%s", startID.Hex(), endID.Hex()), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"deltaText":"-2"`)

	rr = srv.do(http.MethodGet, "/api/v1/comparisons?start="+startID.Hex(), "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	comparisons.AssertExpectations(t)
}

func TestReportHandler_Export(t *testing.T) {
	exports := &exportServiceMock{}
	srv := newTestServer(t, Services{Export: exports})

	ds := &export.Dataset{Clients: []export.ClientRow{{
		Client: domain.Client{ID: primitive.NewObjectID(), FullName: "Ana Pérez", DocumentType: domain.DocumentV, DocumentNumber: "123"},
		Status: domain.MembershipActive,
	}}}
	exports.On("Collect", mock.Anything, srv.trainerID, testToday).Return(ds, nil).Once()

	rr := srv.do(http.MethodGet, "/api/v1/export", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "gym-admin-2024-03-10.xlsx")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetClients)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "Ana Pérez")
	exports.AssertExpectations(t)
}
