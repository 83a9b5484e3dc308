package service

import (
	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"context"
	"math"
	"strconv"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Markers rendered in place of a missing value.
const (
	AbsentValue   = "-"
	NoPhotoMarker = "Sin foto"
)

// Direction is the sign of a delta.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionEqual Direction = "equal"
)

// FieldDelta is one row of a comparison. A nil side was not measured on that snapshot.
type FieldDelta struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Unit      string    `json:"unit"`
	Start     *float64  `json:"start"`
	End       *float64  `json:"end"`
	StartText string    `json:"startText"`
	EndText   string    `json:"endText"`
	Delta     float64   `json:"delta"`
	DeltaText string    `json:"deltaText"`
	Direction Direction `json:"direction"`
}

// PhotoSide is one half of a photo pair. Photo is nil and Marker set when the
// snapshot has nothing in that slot.
type PhotoSide struct {
	Photo  *domain.ProgressPhoto `json:"photo"`
	URL    *string               `json:"url"`
	Marker string                `json:"marker,omitempty"`
}

// PhotoPair lines up the same slot of both snapshots.
type PhotoPair struct {
	Type  domain.PhotoType `json:"type"`
	Start PhotoSide        `json:"start"`
	End   PhotoSide        `json:"end"`
}

// SnapshotSummary identifies one of the compared snapshots.
type SnapshotSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Date     civil.Date         `json:"date"`
	DateText string             `json:"dateText"`
	Objetivo string             `json:"objetivo,omitempty"`
	Notas    string             `json:"notas,omitempty"`
}

// ComparisonReport is the structure document renderers consume.
type ComparisonReport struct {
	ClientID       primitive.ObjectID  `json:"clientId"`
	ClientName     string              `json:"clientName"`
	DocumentType   domain.DocumentType `json:"documentType"`
	DocumentNumber string              `json:"documentNumber"`
	Start          SnapshotSummary     `json:"start"`
	End            SnapshotSummary     `json:"end"`
	Rows           []FieldDelta        `json:"rows"`
	Photos         []PhotoPair         `json:"photos"`
}

type ComparisonService interface {
	Compare(ctx context.Context, trainerID, startID, endID primitive.ObjectID) (*ComparisonReport, error)
}

// comparisonService implements the ComparisonService interface.
type comparisonService struct {
	clientRepo      repository.ClientRepository
	measurementRepo repository.MeasurementRepository
	photos          PhotoService
}

// NewComparisonService creates a new instance of comparisonService.
func NewComparisonService(clientRepo repository.ClientRepository, measurementRepo repository.MeasurementRepository, photos PhotoService) ComparisonService {
	return &comparisonService{
		clientRepo:      clientRepo,
		measurementRepo: measurementRepo,
		photos:          photos,
	}
}

func (s *comparisonService) Compare(ctx context.Context, trainerID, startID, endID primitive.ObjectID) (*ComparisonReport, error) {
	start, err := s.measurementRepo.GetByID(ctx, trainerID, startID)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}
	end, err := s.measurementRepo.GetByID(ctx, trainerID, endID)
	if err != nil {
		return nil, mapNotFound(err, ErrMeasurementNotFound)
	}
	if start.ClientID != end.ClientID {
		return nil, ValidationErrors{"end": "both measurements must belong to the same client"}
	}

	client, err := s.clientRepo.GetByID(ctx, trainerID, start.ClientID)
	if err != nil {
		return nil, mapNotFound(err, ErrClientNotFound)
	}

	startPhotos, err := s.photos.FetchForMeasurement(ctx, trainerID, start.ID)
	if err != nil {
		return nil, err
	}
	endPhotos, err := s.photos.FetchForMeasurement(ctx, trainerID, end.ID)
	if err != nil {
		return nil, err
	}

	return &ComparisonReport{
		ClientID:       client.ID,
		ClientName:     client.FullName,
		DocumentType:   client.DocumentType,
		DocumentNumber: client.DocumentNumber,
		Start:          summarize(start),
		End:            summarize(end),
		Rows:           CompareMeasurements(&start.Measurements, &end.Measurements),
		Photos:         PairPhotos(domain.NewPhotoSet(startPhotos), domain.NewPhotoSet(endPhotos)),
	}, nil
}

func summarize(r *domain.MeasurementRecord) SnapshotSummary {
	return SnapshotSummary{
		ID:       r.ID,
		Date:     r.Date,
		DateText: calendar.FormatDisplay(r.Date),
		Objetivo: r.Objetivo,
		Notas:    r.Notas,
	}
}

// CompareMeasurements builds one row per schema field measured on either
// side, in schema order. A missing side counts as zero in the delta.
func CompareMeasurements(start, end *domain.Measurements) []FieldDelta {
	rows := []FieldDelta{}
	for _, field := range domain.MeasurementSchema {
		a, b := field.Value(start), field.Value(end)
		if a == nil && b == nil {
			continue
		}

		delta := roundHundredths(valueOrZero(b) - valueOrZero(a))
		rows = append(rows, FieldDelta{
			Key:       field.Key,
			Label:     field.Label,
			Unit:      field.Unit,
			Start:     a,
			End:       b,
			StartText: formatValue(a),
			EndText:   formatValue(b),
			Delta:     delta,
			DeltaText: formatDelta(delta),
			Direction: directionOf(delta),
		})
	}
	return rows
}

// PairPhotos returns one pair per photo type, in frontal, lateral, posterior order.
func PairPhotos(start, end domain.PhotoSet) []PhotoPair {
	pairs := make([]PhotoPair, 0, len(domain.PhotoTypes))
	for _, t := range domain.PhotoTypes {
		pairs = append(pairs, PhotoPair{
			Type:  t,
			Start: photoSide(start, t),
			End:   photoSide(end, t),
		})
	}
	return pairs
}

func photoSide(set domain.PhotoSet, t domain.PhotoType) PhotoSide {
	p, ok := set.Get(t)
	if !ok {
		return PhotoSide{Marker: NoPhotoMarker}
	}
	side := PhotoSide{Photo: &p}
	if p.URL != "" {
		url := p.URL
		side.URL = &url
	}
	return side
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func roundHundredths(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

func formatValue(v *float64) string {
	if v == nil {
		return AbsentValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDelta(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if d > 0 {
		return "+" + s
	}
	return s
}

func directionOf(d float64) Direction {
	switch {
	case d > 0:
		return DirectionUp
	case d < 0:
		return DirectionDown
	default:
		return DirectionEqual
	}
}
