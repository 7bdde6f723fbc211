package epic

import (
	"strings"

	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

// PatEncMapper maps PAT_ENC rows to Encounter resources.
type PatEncMapper struct{}

func (PatEncMapper) ResourceKind() string { return "Encounter" }

func (PatEncMapper) ToResource(row map[string]string) map[string]interface{} {
	contactDate, ok := ParseDate(field(row, "CONTACT_DATE"))
	if !ok {
		return nil
	}

	statusRaw := strings.ToLower(field(row, "APPT_STATUS_C_NAME"))
	status := "finished"
	switch {
	case strings.Contains(statusRaw, "complete"):
		status = "finished"
	case strings.Contains(statusRaw, "cancelled"), strings.Contains(statusRaw, "canceled"),
		strings.Contains(statusRaw, "no show"):
		status = "cancelled"
	case strings.Contains(statusRaw, "scheduled"):
		status = "planned"
	}

	encClass := "AMB"
	finClass := strings.ToLower(field(row, "FIN_CLASS_C_NAME"))
	switch {
	case strings.Contains(finClass, "inpatient"):
		encClass = "IMP"
	case strings.Contains(finClass, "emergency"):
		encClass = "EMER"
	}

	period := fhir.Resource{"start": fhirDate(contactDate)}
	if discharge, ok := ParseDate(field(row, "HOSP_DISCHRG_TIME")); ok {
		period["end"] = fhirDate(discharge)
	}

	resource := fhir.Resource{
		"resourceType": "Encounter",
		"status":       status,
		"class":        fhir.Resource{"code": encClass},
		"period":       period,
	}

	if dept := field(row, "DEPARTMENT_ID_EXTERNAL_NAME"); dept != "" {
		resource["location"] = []interface{}{
			fhir.Resource{"location": fhir.Resource{"display": dept}},
		}
	}

	if provider := field(row, "VISIT_PROV_ID_PROV_NAME"); provider != "" {
		display := provider
		if title := field(row, "VISIT_PROV_TITLE_NAME"); title != "" {
			display = provider + ", " + title
		}
		resource["participant"] = []interface{}{
			fhir.Resource{"individual": fhir.Resource{"display": display}},
		}
	}

	if reason := field(row, "CONTACT_COMMENT"); reason != "" {
		resource["reasonCode"] = []interface{}{fhir.TextConcept(reason)}
	}

	return resource
}
