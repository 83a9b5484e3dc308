package domain

import (
	"path"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PhotoType tags the pose a progress photo was taken in.
type PhotoType string

const (
	PhotoFrontal   PhotoType = "frontal"
	PhotoLateral   PhotoType = "lateral"
	PhotoPosterior PhotoType = "posterior"
)

// PhotoTypes is the fixed slot order used for uploads and comparisons.
var PhotoTypes = []PhotoType{PhotoFrontal, PhotoLateral, PhotoPosterior}

func (t PhotoType) IsValid() bool {
	switch t {
	case PhotoFrontal, PhotoLateral, PhotoPosterior:
		return true
	default:
		return false
	}
}

// ProgressPhoto is the metadata of one photo slot. The binary lives in object storage.
type ProgressPhoto struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MeasurementID primitive.ObjectID `bson:"measurementId" json:"measurementId"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	TrainerID     primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	PhotoType     PhotoType          `bson:"photoType" json:"photoType"`
	ObjectKey     string             `bson:"objectKey" json:"-"`
	ContentType   string             `bson:"contentType" json:"contentType"`
	Size          int64              `bson:"size" json:"size"`
	UploadedAt    time.Time          `bson:"uploadedAt" json:"uploadedAt"`

	// URL is generated on read and may expire; it is never stored.
	URL string `bson:"-" json:"url,omitempty"`
}

// PhotoObjectKey is the storage path of a slot. It is a pure function of the
// slot, so uploading the same type again overwrites the previous object.
func PhotoObjectKey(clientID, measurementID primitive.ObjectID, t PhotoType) string {
	return path.Join("progress-photos", clientID.Hex(), measurementID.Hex(), string(t))
}

// PhotoSet holds at most one photo per type for a single measurement.
type PhotoSet map[PhotoType]ProgressPhoto

// NewPhotoSet builds a set from stored rows. Should several rows share a type,
// the most recently uploaded one occupies the slot.
func NewPhotoSet(photos []ProgressPhoto) PhotoSet {
	set := make(PhotoSet, len(PhotoTypes))
	for _, p := range photos {
		set.Put(p)
	}
	return set
}

// Put places p in its slot, replacing an older photo of the same type.
func (s PhotoSet) Put(p ProgressPhoto) {
	if existing, ok := s[p.PhotoType]; ok && existing.UploadedAt.After(p.UploadedAt) {
		return
	}
	s[p.PhotoType] = p
}

// Get returns the photo in slot t, if any.
func (s PhotoSet) Get(t PhotoType) (ProgressPhoto, bool) {
	p, ok := s[t]
	return p, ok
}

// Ordered returns the occupied slots in PhotoTypes order.
func (s PhotoSet) Ordered() []ProgressPhoto {
	out := make([]ProgressPhoto, 0, len(s))
	for _, t := range PhotoTypes {
		if p, ok := s[t]; ok {
			out = append(out, p)
		}
	}
	return out
}
