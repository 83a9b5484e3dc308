// Package export flattens a trainer's data into an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sheet names, in workbook order.
const (
	SheetClients      = "Clientes"
	SheetMeasurements = "Medidas"
	SheetAssignments  = "Asignaciones"
	SheetPhotos       = "Fotos"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ClientRow struct {
	Client        domain.Client
	Status        domain.MembershipStatus
	DaysRemaining int
}

type AssignmentRow struct {
	Assignment   domain.Assignment
	Status       domain.AssignmentStatus
	TemplateName string
}

// Dataset is everything that goes into one workbook. Photos only carry their URL.
type Dataset struct {
	Clients      []ClientRow
	Measurements []domain.MeasurementRecord
	Assignments  []AssignmentRow
	Photos       []domain.ProgressPhoto
}

// Build lays the dataset out in four sheets with a header row each.
func Build(ds Dataset) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetClients); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetMeasurements, SheetAssignments, SheetPhotos} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	names := map[primitive.ObjectID]string{}
	for _, c := range ds.Clients {
		names[c.Client.ID] = c.Client.FullName
	}
	dates := map[primitive.ObjectID]string{}
	for _, m := range ds.Measurements {
		dates[m.ID] = calendar.FormatDisplay(m.Date)
	}

	w := &sheetWriter{f: f}
	w.clients(ds.Clients)
	w.measurements(ds.Measurements, names)
	w.assignments(ds.Assignments, names)
	w.photos(ds.Photos, names, dates)
	if w.err != nil {
		return nil, w.err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to out.
func Write(out io.Writer, ds Dataset) error {
	f, err := Build(ds)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

// sheetWriter keeps the first cell error so rows can be written without
// checking every call.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	if w.err != nil {
		return
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			w.err = fmt.Errorf("%s!%s: %w", sheet, cell, err)
			return
		}
	}
}

func (w *sheetWriter) clients(rows []ClientRow) {
	w.row(SheetClients, 1, "Tipo doc", "Documento", "Nombre", "Teléfono", "Email", "Inicio", "Meses", "Vence", "Estado", "Días restantes")
	for i, r := range rows {
		c := r.Client
		w.row(SheetClients, i+2,
			string(c.DocumentType), c.DocumentNumber, c.FullName, c.Phone, c.Email,
			calendar.FormatDisplay(c.StartDate), c.DurationMonths, calendar.FormatDisplay(c.EndDate),
			string(r.Status), r.DaysRemaining,
		)
	}
}

func (w *sheetWriter) measurements(records []domain.MeasurementRecord, names map[primitive.ObjectID]string) {
	header := []any{"Cliente", "Fecha"}
	for _, field := range domain.MeasurementSchema {
		header = append(header, fmt.Sprintf("%s (%s)", field.Label, field.Unit))
	}
	header = append(header, "Objetivo", "Notas")
	w.row(SheetMeasurements, 1, header...)

	for i := range records {
		m := &records[i]
		values := []any{names[m.ClientID], calendar.FormatDisplay(m.Date)}
		for _, field := range domain.MeasurementSchema {
			if v := field.Value(&m.Measurements); v != nil {
				values = append(values, *v)
			} else {
				values = append(values, "")
			}
		}
		values = append(values, m.Objetivo, m.Notas)
		w.row(SheetMeasurements, i+2, values...)
	}
}

func (w *sheetWriter) assignments(rows []AssignmentRow, names map[primitive.ObjectID]string) {
	w.row(SheetAssignments, 1, "Cliente", "Tipo", "Plantilla", "Inicio", "Fin", "Estado", "Notas")
	for i, r := range rows {
		a := r.Assignment
		w.row(SheetAssignments, i+2,
			names[a.ClientID], string(a.Kind), r.TemplateName,
			calendar.FormatDisplay(a.StartDate), calendar.FormatDisplay(a.EndDate),
			string(r.Status), a.Notes,
		)
	}
}

func (w *sheetWriter) photos(photos []domain.ProgressPhoto, names, dates map[primitive.ObjectID]string) {
	w.row(SheetPhotos, 1, "Cliente", "Fecha medida", "Tipo", "URL")
	for i, p := range photos {
		w.row(SheetPhotos, i+2, names[p.ClientID], dates[p.MeasurementID], string(p.PhotoType), p.URL)
	}
}
