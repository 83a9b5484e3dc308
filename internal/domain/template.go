package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateKind separates workout routines from nutrition plans.
type TemplateKind string

const (
	KindRoutine   TemplateKind = "routine"
	KindNutrition TemplateKind = "nutrition"
)

func (k TemplateKind) IsValid() bool {
	return k == KindRoutine || k == KindNutrition
}

// TemplateItem is one exercise of a routine or one meal of a nutrition plan.
type TemplateItem struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Details string `bson:"details,omitempty" json:"details,omitempty"`

	// Reference image, routine items only.
	ImageKey string `bson:"imageKey,omitempty" json:"-"`
	ImageURL string `bson:"-" json:"imageUrl,omitempty"`
}

// Template is a reusable routine or nutrition plan owned by a trainer.
// Assigning it to clients never copies or mutates it.
type Template struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Kind        TemplateKind       `bson:"kind" json:"kind"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Items       []TemplateItem     `bson:"items" json:"items"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Item returns a pointer to the item with the given id, or nil.
func (t *Template) Item(itemID string) *TemplateItem {
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			return &t.Items[i]
		}
	}
	return nil
}
