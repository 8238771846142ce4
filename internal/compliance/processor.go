/**
 * Compliance text processor
 *
 * Applies the pattern library to cleaned OCR text, normalizes values,
 * assigns advisory confidences and derives score and status. PatternMismatch
 * is not an error - an absent field is a normal outcome.
 */

package compliance

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/DEMONNN69/anvay/internal/logging"
)

// Status is the compliance verdict for a check.
type Status string

// Possible verdicts.
const (
	StatusPass    Status = "pass"
	StatusPartial Status = "partial"
	StatusFail    Status = "fail"
)

// ThresholdPolicy maps a score to a status. Thresholds are configuration,
// not constants: the five-field catalog runs 60/40, stricter four-field
// deployments run 80/50.
type ThresholdPolicy struct {
	PassAt    int
	PartialAt int
}

// The two documented policies.
var (
	DefaultPolicy = ThresholdPolicy{PassAt: 60, PartialAt: 40}
	StrictPolicy  = ThresholdPolicy{PassAt: 80, PartialAt: 50}
)

// Status derives the verdict for a score under this policy.
func (t ThresholdPolicy) Status(score int) Status {
	switch {
	case score >= t.PassAt:
		return StatusPass
	case score >= t.PartialAt:
		return StatusPartial
	default:
		return StatusFail
	}
}

// Processor extracts compliance fields from OCR text.
type Processor struct {
	lib    *Library
	logger *logging.Logger
}

// NewProcessor creates a processor over the shared pattern library.
func NewProcessor() *Processor {
	return &Processor{
		lib:    DefaultLibrary(),
		logger: logging.NewLogger("ComplianceProcessor"),
	}
}

var freeTextNoise = regexp.MustCompile(`[^\w\s.,&\-']`)

// ExtractFields matches every field type against the text. Patterns run in
// catalog order; the first pattern whose capture survives the per-kind
// validation wins for that type.
func (p *Processor) ExtractFields(text string) map[FieldType]string {
	results := make(map[FieldType]string)

	for _, ft := range p.lib.order {
	patterns:
		for _, re := range p.lib.patterns[ft] {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}

			switch p.lib.kinds[ft] {
			case kindFreeText:
				value := strings.TrimSpace(m[1])
				value = freeTextNoise.ReplaceAllString(value, " ")
				value = strings.Join(strings.Fields(value), " ")
				if len(value) > 3 && !isDigits(value) {
					results[ft] = value
					break patterns
				}

			case kindQuantity:
				if len(m) >= 3 && m[2] != "" {
					number := strings.TrimSpace(m[1])
					unit := strings.ToLower(strings.TrimSpace(m[2]))
					if canonical, ok := unitSynonyms[unit]; ok {
						unit = canonical
					}
					results[ft] = fmt.Sprintf("%s %s", number, unit)
				} else {
					results[ft] = m[1]
				}
				break patterns

			case kindMonetary:
				price := strings.TrimSpace(m[1])
				if _, err := strconv.ParseFloat(price, 64); err != nil {
					continue
				}
				results[ft] = "₹" + price
				break patterns

			case kindDate:
				date := strings.TrimSpace(m[1])
				if ValidDateShape(date) {
					results[ft] = date
					break patterns
				}

			default:
				value := strings.TrimSpace(m[1])
				if len(value) > 2 {
					results[ft] = value
					break patterns
				}
			}
		}
	}

	p.logger.Debug("field extraction complete", "detected", len(results))
	return results
}

// Units recognized when judging quantity confidence.
var confidenceUnits = []string{"g", "kg", "ml", "l", "gm", "gms", "ltr", "litre", "pieces", "pcs"}

var numericDateShape = regexp.MustCompile(`^\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)

// FieldConfidences assigns an advisory confidence to each extracted value.
// Confidence never gates detection; it only rides along in the result for
// the API layer to display.
func (p *Processor) FieldConfidences(fields map[FieldType]string) map[FieldType]float64 {
	scores := make(map[FieldType]float64, len(fields))

	for ft, value := range fields {
		switch p.lib.kinds[ft] {
		case kindMonetary:
			raw := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(value, "₹", ""), "Rs.", ""))
			if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
				scores[ft] = 0.9
			} else {
				scores[ft] = 0.3
			}

		case kindQuantity:
			lower := strings.ToLower(value)
			hasUnit := false
			for _, unit := range confidenceUnits {
				if strings.Contains(lower, unit) {
					hasUnit = true
					break
				}
			}
			if hasUnit && strings.ContainsAny(value, "0123456789") {
				scores[ft] = 0.8
			} else {
				scores[ft] = 0.4
			}

		case kindDate:
			if numericDateShape.MatchString(value) {
				scores[ft] = 0.9
			} else {
				scores[ft] = 0.5
			}

		case kindFreeText:
			switch {
			case len(value) > 10 && !isAllUpper(value):
				scores[ft] = 0.7
			case len(value) > 5:
				scores[ft] = 0.5
			default:
				scores[ft] = 0.3
			}

		default:
			scores[ft] = 0.6
		}
	}
	return scores
}

// Score computes the completeness percentage of detected against required
// fields. An empty required set scores zero.
func Score(detected map[FieldType]string, required []FieldType) int {
	if len(required) == 0 {
		return 0
	}
	present := 0
	for _, ft := range required {
		if _, ok := detected[ft]; ok {
			present++
		}
	}
	return int(math.Round(100 * float64(present) / float64(len(required))))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isAllUpper reports whether every cased character is uppercase and at
// least one cased character exists.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
