package fhir

import (
	"time"
)

// Timestamp layouts emitted by the table mappers and accepted from FHIR
// payloads, tried in order.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDateTime parses a resource timestamp string. Returns nil when the
// value is empty or matches no known layout.
func ParseDateTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// Field names checked, in priority order, when deriving a resource's
// effective date: explicit datetime fields first, then period start, then
// onset.
var effectiveDateFields = []string{
	"effectiveDateTime",
	"performedDateTime",
	"occurrenceDateTime",
	"authoredOn",
	"date",
}

var periodFields = []string{"period", "performedPeriod"}

// EffectiveDate extracts the resource's effective date, or nil.
func EffectiveDate(res Resource) *time.Time {
	for _, field := range effectiveDateFields {
		if t := ParseDateTime(getString(res, field)); t != nil {
			return t
		}
	}
	for _, field := range periodFields {
		if t := ParseDateTime(getString(getMap(res, field), "start")); t != nil {
			return t
		}
	}
	return ParseDateTime(getString(res, "onsetDateTime"))
}

// EffectiveDateEnd extracts the end of the resource's effective period, or nil.
func EffectiveDateEnd(res Resource) *time.Time {
	for _, field := range periodFields {
		if t := ParseDateTime(getString(getMap(res, field), "end")); t != nil {
			return t
		}
	}
	return ParseDateTime(getString(res, "abatementDateTime"))
}

// Status extracts the resource's status-like field: a plain status string,
// or the first clinicalStatus coding code.
func Status(res Resource) *string {
	if s := getString(res, "status"); s != "" {
		return &s
	}
	for _, coding := range getSlice(getMap(res, "clinicalStatus"), "coding") {
		if c, ok := coding.(map[string]interface{}); ok {
			if code := getString(c, "code"); code != "" {
				return &code
			}
		}
	}
	return nil
}

// Categories collects display text from every category entry, order
// preserving, duplicates allowed. Coding displays come first within an
// entry, then the entry's free text.
func Categories(res Resource) []string {
	var out []string
	for _, cat := range getSlice(res, "category") {
		m, ok := cat.(map[string]interface{})
		if !ok {
			continue
		}
		for _, coding := range getSlice(m, "coding") {
			if c, ok := coding.(map[string]interface{}); ok {
				if display := getString(c, "display"); display != "" {
					out = append(out, display)
				}
			}
		}
		if text := getString(m, "text"); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// Coding picks the representative code triple: the first coding entry under
// the resource's primary code field, falling back to the free-text label as
// the display when no coded entry exists.
func Coding(res Resource) (system, code, display *string) {
	codeField := getMap(res, "code")
	for _, coding := range getSlice(codeField, "coding") {
		if c, ok := coding.(map[string]interface{}); ok {
			return strPtr(getString(c, "system")), strPtr(getString(c, "code")), strPtr(getString(c, "display"))
		}
	}
	return nil, nil, strPtr(getString(codeField, "text"))
}

// DisplayText derives the record's human-readable label: resource code text,
// then type text, then description, then the resource kind itself.
func DisplayText(res Resource) string {
	if text := getString(getMap(res, "code"), "text"); text != "" {
		return text
	}
	if text := getString(getMap(res, "type"), "text"); text != "" {
		return text
	}
	if desc := getString(res, "description"); desc != "" {
		return desc
	}
	return getString(res, "resourceType")
}

func getMap(res Resource, key string) map[string]interface{} {
	if res == nil {
		return nil
	}
	m, _ := res[key].(map[string]interface{})
	return m
}

func getSlice(res map[string]interface{}, key string) []interface{} {
	if res == nil {
		return nil
	}
	s, _ := res[key].([]interface{})
	return s
}

func getString(res map[string]interface{}, key string) string {
	if res == nil {
		return ""
	}
	s, _ := res[key].(string)
	return s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
