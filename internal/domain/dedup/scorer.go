// Package dedup finds pairs of health records likely describing the same
// real-world clinical fact and persists them as review candidates.
package dedup

import (
	"strings"
	"time"

	"github.com/chartmerge/chartmerge/internal/domain/record"
)

// Scoring weights. A pair scores the sum of every signal that fires,
// clamped to 1.0.
const (
	weightCodeMatch   = 0.4
	weightTextExact   = 0.3
	weightTextFuzzy   = 0.2
	weightDateNear    = 0.2
	weightStatusMatch = 0.1
	weightCrossSource = 0.1

	fuzzyThreshold = 0.8
	dateWindow     = 24 * time.Hour

	// CandidateThreshold is the minimum score a pair must reach to be
	// stored as a duplicate candidate.
	CandidateThreshold = 0.7
)

// Match reasons recorded alongside a candidate.
const (
	ReasonCodeMatch     = "code_match"
	ReasonTextExact     = "text_exact_match"
	ReasonTextFuzzy     = "text_fuzzy_match"
	ReasonDateProximity = "date_proximity"
	ReasonStatusMatch   = "status_match"
	ReasonCrossSource   = "cross_source"
)

// Compare scores the similarity of two records of the same type. It is
// symmetric in its arguments.
func Compare(a, b *record.HealthRecord) (float64, map[string]bool) {
	score := 0.0
	reasons := map[string]bool{}

	if a.CodeValue != nil && b.CodeValue != nil && *a.CodeValue != "" && *a.CodeValue == *b.CodeValue {
		score += weightCodeMatch
		reasons[ReasonCodeMatch] = true
	}

	if a.DisplayText != "" && b.DisplayText != "" {
		aText := strings.ToLower(a.DisplayText)
		bText := strings.ToLower(b.DisplayText)
		if aText == bText {
			score += weightTextExact
			reasons[ReasonTextExact] = true
		} else if jaccard(aText, bText) > fuzzyThreshold {
			score += weightTextFuzzy
			reasons[ReasonTextFuzzy] = true
		}
	}

	if a.EffectiveDate != nil && b.EffectiveDate != nil {
		d := a.EffectiveDate.Sub(*b.EffectiveDate)
		if d < 0 {
			d = -d
		}
		if d < dateWindow {
			score += weightDateNear
			reasons[ReasonDateProximity] = true
		}
	}

	if a.Status != nil && b.Status != nil && *a.Status != "" && *a.Status == *b.Status {
		score += weightStatusMatch
		reasons[ReasonStatusMatch] = true
	}

	if a.SourceFormat != b.SourceFormat {
		score += weightCrossSource
		reasons[ReasonCrossSource] = true
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

// jaccard computes token-set overlap between two lowercased strings.
func jaccard(a, b string) float64 {
	aSet := tokenSet(a)
	bSet := tokenSet(b)
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}

	inter := 0
	union := len(bSet)
	for t := range aSet {
		if bSet[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
