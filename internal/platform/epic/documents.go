package epic

import (
	"strings"

	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

// DocInformationMapper maps DOC_INFORMATION rows to DocumentReference
// resources.
type DocInformationMapper struct{}

func (DocInformationMapper) ResourceKind() string { return "DocumentReference" }

func (DocInformationMapper) ToResource(row map[string]string) map[string]interface{} {
	docType := field(row, "DOC_INFO_TYPE_C_NAME")
	if docType == "" {
		return nil
	}

	statusRaw := strings.ToLower(field(row, "DOC_STAT_C_NAME"))
	status := "current"
	if strings.Contains(statusRaw, "inactive") || strings.Contains(statusRaw, "deleted") {
		status = "superseded"
	}

	description := field(row, "DOC_DESCR")
	if description == "" {
		description = docType
	}

	resource := fhir.Resource{
		"resourceType": "DocumentReference",
		"status":       status,
		"type":         fhir.TextConcept(docType),
		"description":  description,
	}

	if docDate, ok := ParseDate(field(row, "DOC_RECV_TIME")); ok {
		resource["date"] = fhirDate(docDate)
	}
	if author := field(row, "RECV_BY_USER_ID_NAME"); author != "" {
		resource["author"] = []interface{}{fhir.Resource{"display": author}}
	}
	if field(row, "IS_SCANNED_YN") == "Y" {
		resource["category"] = []interface{}{fhir.TextConcept("scanned")}
	}

	return resource
}
