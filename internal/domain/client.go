package domain

import (
	"strings"
	"time"

	"alcyxob/gym-admin/internal/calendar"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentType is the kind of identity document a client registered with.
type DocumentType string

const (
	DocumentV DocumentType = "V" // national id
	DocumentE DocumentType = "E" // foreign resident id
	DocumentP DocumentType = "P" // passport
	DocumentJ DocumentType = "J" // legal entity
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentV, DocumentE, DocumentP, DocumentJ:
		return true
	default:
		return false
	}
}

// MembershipStatus is derived from the membership end date; it is never persisted.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipExpiring MembershipStatus = "expiring"
	MembershipExpired  MembershipStatus = "expired"
)

func (s MembershipStatus) IsValid() bool {
	return s == MembershipActive || s == MembershipExpiring || s == MembershipExpired
}

const (
	MinDurationMonths = 1
	MaxDurationMonths = 12
)

// MedicalRecord is only kept on a client when at least one flag is set.
type MedicalRecord struct {
	HasPathology bool   `bson:"hasPathology" json:"hasPathology"`
	HasInjury    bool   `bson:"hasInjury" json:"hasInjury"`
	HasAllergy   bool   `bson:"hasAllergy" json:"hasAllergy"`
	Details      string `bson:"details,omitempty" json:"details,omitempty"`
}

func (m *MedicalRecord) HasAnyFlag() bool {
	return m != nil && (m.HasPathology || m.HasInjury || m.HasAllergy)
}

// Client is a gym member managed by a trainer.
type Client struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID      primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	DocumentType   DocumentType       `bson:"documentType" json:"documentType"`
	DocumentNumber string             `bson:"documentNumber" json:"documentNumber"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Phone          string             `bson:"phone" json:"phone"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`

	// Membership window. EndDate is always AddMonths(StartDate, DurationMonths).
	StartDate      civil.Date `bson:"startDate" json:"startDate"`
	DurationMonths int        `bson:"durationMonths" json:"durationMonths"`
	EndDate        civil.Date `bson:"endDate" json:"endDate"`

	InitialWeight *float64       `bson:"initialWeight,omitempty" json:"initialWeight,omitempty"`
	Height        *float64       `bson:"height,omitempty" json:"height,omitempty"`
	BirthDate     *civil.Date    `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Medical       *MedicalRecord `bson:"medical,omitempty" json:"medical,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeDocumentType uppercases and trims a document type as typed by a user.
func NormalizeDocumentType(t DocumentType) DocumentType {
	return DocumentType(strings.ToUpper(strings.TrimSpace(string(t))))
}

// NormalizeDocumentNumber is the form document numbers are compared and stored in.
func NormalizeDocumentNumber(n string) string {
	return strings.TrimSpace(n)
}

// SetMembership restarts the membership window at start for the given number of months.
func (c *Client) SetMembership(start civil.Date, months int) {
	c.StartDate = start
	c.DurationMonths = months
	c.EndDate = calendar.AddMonths(start, months)
}

// Status derives the membership status for today. The end date itself still
// counts as valid; the last expiringWindowDays days before it are "expiring".
func (c *Client) Status(today civil.Date, expiringWindowDays int) MembershipStatus {
	switch calendar.ClassifyWindow(c.EndDate, today, expiringWindowDays) {
	case calendar.WindowClosed:
		return MembershipExpired
	case calendar.WindowClosing:
		return MembershipExpiring
	default:
		return MembershipActive
	}
}

// PhoneDigits strips everything but digits, the form messaging deep links expect.
func (c *Client) PhoneDigits() string {
	var b strings.Builder
	for _, r := range c.Phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
