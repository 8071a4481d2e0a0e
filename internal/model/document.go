package model

import "time"

// DocumentCategory classifies a stored document.
type DocumentCategory string

const (
	CategoryMedicalRecord DocumentCategory = "medical_record"
	CategoryPrescription  DocumentCategory = "prescription"
	CategoryLabResult     DocumentCategory = "lab_result"
	CategoryInsurance     DocumentCategory = "insurance"
	CategoryOther         DocumentCategory = "other"
)

// Valid reports whether the category is one of the fixed set.
func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryMedicalRecord, CategoryPrescription, CategoryLabResult, CategoryInsurance, CategoryOther:
		return true
	}
	return false
}

// Document represents one encrypted artifact in the vault.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey is an opaque locator into the object store; callers must not
// parse or reconstruct it. SharedWith never contains the owner id.
type Document struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	StorageKey  string            `json:"storage_key"`
	Category    DocumentCategory  `json:"category"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags"`
	SharedWith  []string          `json:"shared_with"`
	IsEncrypted bool              `json:"is_encrypted"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SharedWithUser reports whether the given user id has been granted read access.
func (d *Document) SharedWithUser(userID string) bool {
	for _, id := range d.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}
