package epic

import (
	"strings"

	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

// ProblemListMapper maps PROBLEM_LIST and PROBLEM_LIST_ALL rows to
// Condition resources.
type ProblemListMapper struct{}

func (ProblemListMapper) ResourceKind() string { return "Condition" }

func (ProblemListMapper) ToResource(row map[string]string) map[string]interface{} {
	description := field(row, "DESCRIPTION")
	if description == "" {
		description = field(row, "DX_ID_DX_NAME")
	}
	if description == "" {
		return nil
	}

	notedDate, hasNoted := ParseDate(field(row, "NOTED_DATE"))
	resolvedDate, hasResolved := ParseDate(field(row, "RESOLVED_DATE"))
	statusRaw := strings.ToLower(field(row, "PROBLEM_STATUS_C_NAME"))

	clinicalStatus := "active"
	switch {
	case strings.Contains(statusRaw, "resolved") || hasResolved:
		clinicalStatus = "resolved"
	case strings.Contains(statusRaw, "inactive"):
		clinicalStatus = "inactive"
	}

	categories := []interface{}{
		fhir.Concept(fhir.SystemConditionCategory, "problem-list-item", "Problem List Item"),
	}
	if field(row, "CHRONIC_YN") == "Y" {
		categories = append(categories, fhir.TextConcept("chronic"))
	}

	resource := fhir.Resource{
		"resourceType":   "Condition",
		"code":           fhir.TextConcept(description),
		"clinicalStatus": fhir.Concept(fhir.SystemConditionClinical, clinicalStatus, ""),
		"category":       categories,
	}

	if hasNoted {
		resource["onsetDateTime"] = fhirDate(notedDate)
	}
	if hasResolved {
		resource["abatementDateTime"] = fhirDate(resolvedDate)
	}
	if comment := field(row, "PROBLEM_CMT"); comment != "" {
		resource["note"] = fhir.Note(comment)
	}

	return resource
}

// MedicalHxMapper maps MEDICAL_HX rows to Condition resources.
type MedicalHxMapper struct{}

func (MedicalHxMapper) ResourceKind() string { return "Condition" }

func (MedicalHxMapper) ToResource(row map[string]string) map[string]interface{} {
	dxName := field(row, "DX_ID_DX_NAME")
	if dxName == "" {
		return nil
	}

	category := fhir.Concept(fhir.SystemConditionCategory, "problem-list-item", "")
	category["text"] = "Medical History"

	resource := fhir.Resource{
		"resourceType":   "Condition",
		"code":           fhir.TextConcept(dxName),
		"clinicalStatus": fhir.Concept(fhir.SystemConditionClinical, "active", ""),
		"category":       []interface{}{category},
	}

	if hxDate, ok := ParseDate(field(row, "MEDICAL_HX_DATE")); ok {
		resource["onsetDateTime"] = fhirDate(hxDate)
	}
	if annotation := field(row, "MED_HX_ANNOTATION"); annotation != "" {
		resource["note"] = fhir.Note(annotation)
	}

	return resource
}
