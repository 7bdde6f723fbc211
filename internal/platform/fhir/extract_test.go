package fhir

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want string // empty means nil expected
	}{
		{"2024-05-21T09:30:00Z", "2024-05-21T09:30:00Z"},
		{"2024-05-21T09:30:00", "2024-05-21T09:30:00Z"},
		{"2024-05-21", "2024-05-21T00:00:00Z"},
		{"", ""},
		{"not a date", ""},
	}
	for _, tt := range tests {
		got := ParseDateTime(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Errorf("ParseDateTime(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		want, _ := time.Parse(time.RFC3339, tt.want)
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestEffectiveDate_Priority(t *testing.T) {
	// Explicit datetime wins over period start.
	res := Resource{
		"effectiveDateTime": "2024-01-02T10:00:00",
		"period":            map[string]interface{}{"start": "2024-01-01T00:00:00"},
	}
	got := EffectiveDate(res)
	if got == nil || got.Day() != 2 {
		t.Errorf("expected effectiveDateTime to win, got %v", got)
	}

	// Period start wins over onset.
	res = Resource{
		"period":        map[string]interface{}{"start": "2024-01-01T00:00:00"},
		"onsetDateTime": "2023-06-01T00:00:00",
	}
	got = EffectiveDate(res)
	if got == nil || got.Year() != 2024 {
		t.Errorf("expected period start to win, got %v", got)
	}

	// Onset used when nothing else present.
	res = Resource{"onsetDateTime": "2023-06-01T00:00:00"}
	got = EffectiveDate(res)
	if got == nil || got.Year() != 2023 {
		t.Errorf("expected onset fallback, got %v", got)
	}

	if EffectiveDate(Resource{}) != nil {
		t.Error("expected nil for resource with no dates")
	}
}

func TestEffectiveDateEnd(t *testing.T) {
	res := Resource{"period": map[string]interface{}{"end": "2024-03-01T12:00:00"}}
	if got := EffectiveDateEnd(res); got == nil || got.Month() != time.March {
		t.Errorf("expected period end, got %v", got)
	}

	res = Resource{"abatementDateTime": "2024-04-01T00:00:00"}
	if got := EffectiveDateEnd(res); got == nil || got.Month() != time.April {
		t.Errorf("expected abatement fallback, got %v", got)
	}

	if EffectiveDateEnd(Resource{}) != nil {
		t.Error("expected nil for resource with no end date")
	}
}

func TestStatus(t *testing.T) {
	res := Resource{"status": "final"}
	if got := Status(res); got == nil || *got != "final" {
		t.Errorf("expected final, got %v", got)
	}

	res = Resource{"clinicalStatus": Concept(SystemConditionClinical, "resolved", "")}
	if got := Status(res); got == nil || *got != "resolved" {
		t.Errorf("expected resolved from clinicalStatus coding, got %v", got)
	}

	if Status(Resource{}) != nil {
		t.Error("expected nil status for empty resource")
	}
}

func TestCategories_OrderPreserving(t *testing.T) {
	res := Resource{
		"category": []interface{}{
			Concept(SystemConditionCategory, "problem-list-item", "Problem List Item"),
			TextConcept("chronic"),
		},
	}
	got := Categories(res)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d: %v", len(got), got)
	}
	if got[0] != "Problem List Item" || got[1] != "chronic" {
		t.Errorf("unexpected category order: %v", got)
	}

	if Categories(Resource{}) != nil {
		t.Error("expected nil categories for empty resource")
	}
}

func TestCoding_FirstEntry(t *testing.T) {
	res := Resource{"code": Concept(SystemLOINC, "4548-4", "Hemoglobin A1c")}
	system, code, display := Coding(res)
	if system == nil || *system != SystemLOINC {
		t.Errorf("unexpected system: %v", system)
	}
	if code == nil || *code != "4548-4" {
		t.Errorf("unexpected code: %v", code)
	}
	if display == nil || *display != "Hemoglobin A1c" {
		t.Errorf("unexpected display: %v", display)
	}
}

func TestCoding_TextFallback(t *testing.T) {
	res := Resource{"code": TextConcept("Hypertension")}
	system, code, display := Coding(res)
	if system != nil || code != nil {
		t.Errorf("expected nil system/code, got %v/%v", system, code)
	}
	if display == nil || *display != "Hypertension" {
		t.Errorf("expected text fallback, got %v", display)
	}

	system, code, display = Coding(Resource{})
	if system != nil || code != nil || display != nil {
		t.Error("expected all-nil triple for resource with no code")
	}
}

func TestDisplayText_FallbackChain(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		want string
	}{
		{"code text", Resource{"resourceType": "Condition", "code": TextConcept("Asthma")}, "Asthma"},
		{"type text", Resource{"resourceType": "DocumentReference", "type": map[string]interface{}{"text": "Discharge Summary"}}, "Discharge Summary"},
		{"description", Resource{"resourceType": "DocumentReference", "description": "Scanned letter"}, "Scanned letter"},
		{"resource kind", Resource{"resourceType": "Encounter"}, "Encounter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayText(tt.res); got != tt.want {
				t.Errorf("DisplayText = %q, want %q", got, tt.want)
			}
		})
	}
}
