package epic

import (
	"strings"

	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

// OrderMedMapper maps ORDER_MED rows to MedicationRequest resources.
type OrderMedMapper struct{}

func (OrderMedMapper) ResourceKind() string { return "MedicationRequest" }

func (OrderMedMapper) ToResource(row map[string]string) map[string]interface{} {
	description := field(row, "DESCRIPTION")
	if description == "" {
		return nil
	}

	statusRaw := strings.ToLower(field(row, "ORDER_STATUS_C_NAME"))
	status := "active"
	switch {
	case strings.Contains(statusRaw, "cancel"):
		status = "cancelled"
	case strings.Contains(statusRaw, "discontinu"):
		status = "stopped"
	case strings.Contains(statusRaw, "complete"):
		status = "completed"
	case strings.Contains(statusRaw, "hold"):
		status = "on-hold"
	}

	resource := fhir.Resource{
		"resourceType":              "MedicationRequest",
		"status":                    status,
		"intent":                    "order",
		"medicationCodeableConcept": fhir.TextConcept(description),
		"code":                      fhir.TextConcept(description),
	}

	if orderDate, ok := ParseDate(field(row, "ORDERING_DATE")); ok {
		resource["authoredOn"] = fhirDate(orderDate)
	}
	if sig := field(row, "SIG"); sig != "" {
		resource["dosageInstruction"] = []interface{}{fhir.Resource{"text": sig}}
	}

	return resource
}
