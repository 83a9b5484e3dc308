package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"alcyxob/gym-admin/internal/repository"

	"go.uber.org/multierr"
)

// --- Error Definitions ---
var (
	ErrClientNotFound      = errors.New("client not found")
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrAssignmentNotFound  = errors.New("assignment not found")

	ErrDuplicateIdentity = errors.New("another client already holds this document")
	ErrTemplateInUse     = errors.New("template is assigned to at least one client")
	ErrFileTooLarge      = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeRejected  = errors.New("file type is not allowed")
)

// ValidationErrors maps an input field to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem with field, keeping the first message per field.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Err returns nil when nothing was recorded.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func duplicateIdentityError() error {
	return fmt.Errorf("%w: %w", ErrDuplicateIdentity, ValidationErrors{
		"documentNumber": "a client with this document is already registered",
	})
}

// mapNotFound turns repository.ErrNotFound into the service sentinel.
func mapNotFound(err error, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

// SaveResult is returned by operations that commit their main write and then
// attach files. A non-nil Warning lists the attachments that failed; the main
// write is kept regardless.
type SaveResult struct {
	Measurement *MeasurementWithPhotos
	Warning     error
}

// DeleteResult reports storage cleanup that could not be completed. The rows
// are gone even when Warning is set.
type DeleteResult struct {
	Warning error
}

// Warnings flattens an aggregated warning into messages.
func Warnings(warning error) []string {
	errs := multierr.Errors(warning)
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
