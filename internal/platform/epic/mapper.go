// Package epic ingests Epic EHI export bundles: tab-separated table dumps
// whose rows are mapped into FHIR-shaped resources.
package epic

import (
	"strings"
	"time"
)

// Mapper converts one TSV row of a known Epic table into a FHIR-shaped
// resource. A nil return means the row lacks the minimum identifying
// fields and is skipped.
type Mapper interface {
	ResourceKind() string
	ToResource(row map[string]string) map[string]interface{}
}

var registry = map[string]Mapper{
	"PROBLEM_LIST":     ProblemListMapper{},
	"PROBLEM_LIST_ALL": ProblemListMapper{},
	"MEDICAL_HX":       MedicalHxMapper{},
	"ORDER_MED":        OrderMedMapper{},
	"ORDER_RESULTS":    OrderResultsMapper{},
	"PAT_ENC":          PatEncMapper{},
	"DOC_INFORMATION":  DocInformationMapper{},
}

// Lookup returns the mapper for an Epic table name, case-insensitive.
func Lookup(table string) (Mapper, bool) {
	m, ok := registry[strings.ToUpper(table)]
	return m, ok
}

var dateFormats = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02",
	"2006-01-02T15:04:05",
}

// ParseDate parses the date layouts that appear in Epic EHI exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fhirDate renders a parsed Epic date in the dateTime form used in resources.
func fhirDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// field returns a trimmed cell value, empty when the column is absent.
func field(row map[string]string, name string) string {
	return strings.TrimSpace(row[name])
}
