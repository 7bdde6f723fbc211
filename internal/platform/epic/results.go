package epic

import (
	"strconv"
	"strings"

	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

// OrderResultsMapper maps ORDER_RESULTS rows to Observation resources.
type OrderResultsMapper struct{}

func (OrderResultsMapper) ResourceKind() string { return "Observation" }

func (OrderResultsMapper) ToResource(row map[string]string) map[string]interface{} {
	componentName := field(row, "COMPONENT_ID_NAME")
	if componentName == "" {
		return nil
	}

	statusRaw := strings.ToLower(field(row, "RESULT_STATUS_C_NAME"))
	status := "final"
	switch {
	case strings.Contains(statusRaw, "preliminary"):
		status = "preliminary"
	case strings.Contains(statusRaw, "corrected"):
		status = "corrected"
	}

	code := fhir.TextConcept(componentName)
	if loinc := field(row, "COMPON_LNC_ID_LNC_LONG_NAME"); loinc != "" {
		code["coding"] = []interface{}{
			fhir.Resource{"system": fhir.SystemLOINC, "display": loinc},
		}
	}

	resource := fhir.Resource{
		"resourceType": "Observation",
		"status":       status,
		"category": []interface{}{
			fhir.Concept(fhir.SystemObservationCategory, "laboratory", "Laboratory"),
		},
		"code": code,
	}

	if resultDate, ok := ParseDate(field(row, "RESULT_DATE")); ok {
		resource["effectiveDateTime"] = fhirDate(resultDate)
	}

	value := field(row, "ORD_VALUE")
	unit := field(row, "REFERENCE_UNIT")
	if numValue := field(row, "ORD_NUM_VALUE"); numValue != "" {
		if v, err := strconv.ParseFloat(numValue, 64); err == nil {
			resource["valueQuantity"] = fhir.Resource{"value": v, "unit": unit}
		} else {
			resource["valueString"] = value
		}
	} else if value != "" {
		resource["valueString"] = value
	}

	refRange := fhir.Resource{}
	if low := field(row, "REFERENCE_LOW"); low != "" {
		if v, err := strconv.ParseFloat(low, 64); err == nil {
			refRange["low"] = fhir.Resource{"value": v, "unit": unit}
		}
	}
	if high := field(row, "REFERENCE_HIGH"); high != "" {
		if v, err := strconv.ParseFloat(high, 64); err == nil {
			refRange["high"] = fhir.Resource{"value": v, "unit": unit}
		}
	}
	if len(refRange) > 0 {
		resource["referenceRange"] = []interface{}{refRange}
	}

	if flag := field(row, "RESULT_FLAG_C_NAME"); flag != "" {
		flagLower := strings.ToLower(flag)
		interp := "N"
		switch {
		case strings.Contains(flagLower, "high") || flagLower == "h":
			interp = "H"
		case strings.Contains(flagLower, "low") || flagLower == "l":
			interp = "L"
		case strings.Contains(flagLower, "abnormal"):
			interp = "A"
		}
		resource["interpretation"] = []interface{}{
			fhir.Concept(fhir.SystemObservationInterp, interp, ""),
		}
	}

	return resource
}
