package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurements holds the twelve independent, optional numeric fields of a snapshot.
// Weight is in kilograms, circumferences in centimetres.
type Measurements struct {
	Peso                 *float64 `bson:"peso,omitempty" json:"peso,omitempty"`
	Cuello               *float64 `bson:"cuello,omitempty" json:"cuello,omitempty"`
	Hombros              *float64 `bson:"hombros,omitempty" json:"hombros,omitempty"`
	Pecho                *float64 `bson:"pecho,omitempty" json:"pecho,omitempty"`
	BrazoDerecho         *float64 `bson:"brazoDerecho,omitempty" json:"brazoDerecho,omitempty"`
	BrazoIzquierdo       *float64 `bson:"brazoIzquierdo,omitempty" json:"brazoIzquierdo,omitempty"`
	Cintura              *float64 `bson:"cintura,omitempty" json:"cintura,omitempty"`
	Cadera               *float64 `bson:"cadera,omitempty" json:"cadera,omitempty"`
	MusloDerecho         *float64 `bson:"musloDerecho,omitempty" json:"musloDerecho,omitempty"`
	MusloIzquierdo       *float64 `bson:"musloIzquierdo,omitempty" json:"musloIzquierdo,omitempty"`
	PantorrillaDerecha   *float64 `bson:"pantorrillaDerecha,omitempty" json:"pantorrillaDerecha,omitempty"`
	PantorrillaIzquierda *float64 `bson:"pantorrillaIzquierda,omitempty" json:"pantorrillaIzquierda,omitempty"`
}

// MeasurementField describes one entry of the measurement schema.
type MeasurementField struct {
	Key   string
	Label string
	Unit  string
	Value func(m *Measurements) *float64
}

// MeasurementSchema lists the twelve tracked fields in report order.
var MeasurementSchema = []MeasurementField{
	{Key: "peso", Label: "Peso", Unit: "kg", Value: func(m *Measurements) *float64 { return m.Peso }},
	{Key: "cuello", Label: "Cuello", Unit: "cm", Value: func(m *Measurements) *float64 { return m.Cuello }},
	{Key: "hombros", Label: "Hombros", Unit: "cm", Value: func(m *Measurements) *float64 { return m.Hombros }},
	{Key: "pecho", Label: "Pecho", Unit: "cm", Value: func(m *Measurements) *float64 { return m.Pecho }},
	{Key: "brazoDerecho", Label: "Brazo derecho", Unit: "cm", Value: func(m *Measurements) *float64 { return m.BrazoDerecho }},
	{Key: "brazoIzquierdo", Label: "Brazo izquierdo", Unit: "cm", Value: func(m *Measurements) *float64 { return m.BrazoIzquierdo }},
	{Key: "cintura", Label: "Cintura", Unit: "cm", Value: func(m *Measurements) *float64 { return m.Cintura }},
	{Key: "cadera", Label: "Cadera", Unit: "cm", Value: func(m *Measurements) *float64 { return m.Cadera }},
	{Key: "musloDerecho", Label: "Muslo derecho", Unit: "cm", Value: func(m *Measurements) *float64 { return m.MusloDerecho }},
	{Key: "musloIzquierdo", Label: "Muslo izquierdo", Unit: "cm", Value: func(m *Measurements) *float64 { return m.MusloIzquierdo }},
	{Key: "pantorrillaDerecha", Label: "Pantorrilla derecha", Unit: "cm", Value: func(m *Measurements) *float64 { return m.PantorrillaDerecha }},
	{Key: "pantorrillaIzquierda", Label: "Pantorrilla izquierda", Unit: "cm", Value: func(m *Measurements) *float64 { return m.PantorrillaIzquierda }},
}

// MeasurementRecord is one snapshot of a client's body measurements.
type MeasurementRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID    primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Date         civil.Date         `bson:"date" json:"date"`
	Measurements `bson:",inline"`
	Objetivo     string    `bson:"objetivo,omitempty" json:"objetivo,omitempty"`
	Notas        string    `bson:"notas,omitempty" json:"notas,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SortMeasurements orders records most recent first: date descending, and for
// records sharing a date the one created last comes first.
func SortMeasurements(records []MeasurementRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})
}
