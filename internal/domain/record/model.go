package record

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record types in the canonical vocabulary.
const (
	TypeCondition    = "condition"
	TypeMedication   = "medication"
	TypeObservation  = "observation"
	TypeEncounter    = "encounter"
	TypeDocument     = "document"
	TypeImmunization = "immunization"
	TypeProcedure    = "procedure"
	TypeAllergy      = "allergy"
)

// Source formats identifying the ingestion channel.
const (
	SourceEpicEHI = "epic_ehi"
	SourceFHIR    = "fhir"
)

var recordTypeByKind = map[string]string{
	"Condition":          TypeCondition,
	"MedicationRequest":  TypeMedication,
	"Observation":        TypeObservation,
	"Encounter":          TypeEncounter,
	"DocumentReference":  TypeDocument,
	"Immunization":       TypeImmunization,
	"Procedure":          TypeProcedure,
	"AllergyIntolerance": TypeAllergy,
}

// TypeForResource maps a resource kind to its canonical record type, falling
// back to the lowercased kind for unmapped resources.
func TypeForResource(resourceKind string) string {
	if t, ok := recordTypeByKind[resourceKind]; ok {
		return t
	}
	return strings.ToLower(resourceKind)
}

// HealthRecord is the canonical clinical record every source converts into.
// The original mapped resource is retained verbatim in Resource.
type HealthRecord struct {
	ID               uuid.UUID              `db:"id" json:"id"`
	AccountID        uuid.UUID              `db:"account_id" json:"account_id"`
	PatientID        uuid.UUID              `db:"patient_id" json:"patient_id"`
	RecordType       string                 `db:"record_type" json:"record_type"`
	ResourceKind     string                 `db:"resource_kind" json:"resource_kind"`
	Resource         map[string]interface{} `db:"resource" json:"resource"`
	SourceFormat     string                 `db:"source_format" json:"source_format"`
	SourceFileID     *uuid.UUID             `db:"source_file_id" json:"source_file_id,omitempty"`
	EffectiveDate    *time.Time             `db:"effective_date" json:"effective_date,omitempty"`
	EffectiveDateEnd *time.Time             `db:"effective_date_end" json:"effective_date_end,omitempty"`
	Status           *string                `db:"status" json:"status,omitempty"`
	Category         []string               `db:"category" json:"category,omitempty"`
	CodeSystem       *string                `db:"code_system" json:"code_system,omitempty"`
	CodeValue        *string                `db:"code_value" json:"code_value,omitempty"`
	CodeDisplay      *string                `db:"code_display" json:"code_display,omitempty"`
	DisplayText      string                 `db:"display_text" json:"display_text"`
	ConfidenceScore  *float64               `db:"confidence_score" json:"confidence_score,omitempty"`
	AIExtracted      bool                   `db:"ai_extracted" json:"ai_extracted"`
	IsDuplicate      bool                   `db:"is_duplicate" json:"is_duplicate"`
	DeletedAt        *time.Time             `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time              `db:"updated_at" json:"updated_at"`
}

// DedupCandidate is a persisted, scored claim that two records may represent
// the same real-world fact. Created by the duplicate detector, never mutated
// by it.
type DedupCandidate struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	RecordAID       uuid.UUID       `db:"record_a_id" json:"record_a_id"`
	RecordBID       uuid.UUID       `db:"record_b_id" json:"record_b_id"`
	SimilarityScore float64         `db:"similarity_score" json:"similarity_score"`
	MatchReasons    map[string]bool `db:"match_reasons" json:"match_reasons"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
