package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trainer is an account that owns clients, measurements and templates.
type Trainer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // never exposed via JSON
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
