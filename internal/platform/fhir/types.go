package fhir

// Resource is a FHIR-style resource as a nested map, the shape every table
// mapper produces and the shape persisted verbatim as the record payload.
type Resource = map[string]interface{}

// Terminology systems referenced by the table mappers.
const (
	SystemConditionClinical   = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	SystemConditionCategory   = "http://terminology.hl7.org/CodeSystem/condition-category"
	SystemObservationCategory = "http://terminology.hl7.org/CodeSystem/observation-category"
	SystemObservationInterp   = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	SystemLOINC               = "http://loinc.org"
)

// Concept builds a CodeableConcept map with a single coding entry.
func Concept(system, code, display string) Resource {
	coding := Resource{"system": system, "code": code}
	if display != "" {
		coding["display"] = display
	}
	return Resource{"coding": []interface{}{coding}}
}

// TextConcept builds a CodeableConcept map carrying only free text.
func TextConcept(text string) Resource {
	return Resource{"text": text}
}

// Note builds a single-entry annotation list.
func Note(text string) []interface{} {
	return []interface{}{Resource{"text": text}}
}
