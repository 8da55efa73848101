package piidetect

import (
	"context"

	"github.com/cookedcareer/pdfredact/pkg/pagetext"
)

// Type classifies a detection.
type Type string

const (
	TypeEmail    Type = "email"
	TypePhone    Type = "phone"
	TypeName     Type = "name"
	TypeCompany  Type = "company"
	TypeSchool   Type = "school"
	TypeLinkedIn Type = "linkedin"
	TypeGitHub   Type = "github"
	TypeWebsite  Type = "website"
	TypeAddress  Type = "address"
)

// Confidence is a provenance tag, not a learned score: regex matches are
// deterministic, entity-sourced detections carry a fixed per-category value.
const (
	ConfidenceRegex   = 1.0
	ConfidenceName    = 0.90
	ConfidenceCompany = 0.85
	ConfidenceSchool  = 0.85
	ConfidenceAddress = 0.80
)

// Detection is one physical occurrence of personally identifiable text on a
// page. Detections are created once and never mutated.
type Detection struct {
	ID         string               `json:"id"`
	Type       Type                 `json:"type"`
	Text       string               `json:"text"`
	Page       int                  `json:"page"` // 0-indexed
	BBox       pagetext.BoundingBox `json:"bbox"`
	Confidence float64              `json:"confidence"`
	Style      pagetext.TextStyle   `json:"style"`
}

// Result is the outcome of a full-document detection pass.
type Result struct {
	Detections []Detection `json:"detections"`
	TotalPages int         `json:"total_pages"`
}

// Entities is the categorized output of an entity-extraction collaborator.
// Nil slices mean the category was absent; callers treat them as empty.
type Entities struct {
	Names     []string `json:"names"`
	Companies []string `json:"companies"`
	Schools   []string `json:"schools"`
	Addresses []string `json:"addresses"`
}

// EntityExtractor is the narrow interface to the external entity-extraction
// collaborator, kept small so the coordinate-resolution logic can be tested
// against a deterministic fake.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, pageText string) (Entities, error)
}
