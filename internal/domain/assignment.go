package domain

import (
	"sort"
	"time"

	"alcyxob/gym-admin/internal/calendar"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus is derived from the assignment window and its paused flag.
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentPaused    AssignmentStatus = "paused"
)

// Assignment links a client to a routine or nutrition plan template for a date window.
type Assignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID  primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`
	Kind       TemplateKind       `bson:"kind" json:"kind"`
	StartDate  civil.Date         `bson:"startDate" json:"startDate"`
	EndDate    civil.Date         `bson:"endDate" json:"endDate"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Paused     bool               `bson:"paused" json:"paused"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Status derives the assignment status for today. A finished window is
// completed whether or not it was paused.
func (a *Assignment) Status(today civil.Date) AssignmentStatus {
	if calendar.ClassifyWindow(a.EndDate, today, 0) == calendar.WindowClosed {
		return AssignmentCompleted
	}
	if a.Paused {
		return AssignmentPaused
	}
	return AssignmentActive
}

// SortAssignments orders assignments latest start first, ties by latest creation.
// The first element is what the system treats as the current assignment.
func SortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.StartDate != b.StartDate {
			return a.StartDate.After(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})
}
