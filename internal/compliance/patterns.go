/**
 * Field pattern library
 *
 * Static catalog of regex patterns for Indian packaging compliance fields.
 * Built once at init and shared read-only by every processor; patterns are
 * ordered by precision, the first match for a field type wins.
 */

package compliance

import "regexp"

// FieldType identifies one compliance attribute tracked on a label.
type FieldType string

// The tracked compliance fields.
const (
	FieldMRP               FieldType = "mrp"
	FieldNetQuantity       FieldType = "net_quantity"
	FieldManufacturer      FieldType = "manufacturer"
	FieldCountryOrigin     FieldType = "country_origin"
	FieldManufacturingDate FieldType = "manufacturing_date"
	FieldExpiryDate        FieldType = "expiry_date"
	FieldBatchNumber       FieldType = "batch_number"
	FieldFSSAILicense      FieldType = "fssai_license"
)

// kind selects the post-match handling for a field type.
type kind int

const (
	kindMonetary kind = iota
	kindQuantity
	kindFreeText
	kindDate
	kindGeneric
)

// Library is the immutable pattern catalog, loaded once per process.
type Library struct {
	order    []FieldType
	patterns map[FieldType][]*regexp.Regexp
	kinds    map[FieldType]kind
}

var defaultLibrary = newLibrary()

// DefaultLibrary returns the shared pattern catalog.
func DefaultLibrary() *Library {
	return defaultLibrary
}

// Types lists every field type in evaluation order.
func (l *Library) Types() []FieldType {
	out := make([]FieldType, len(l.order))
	copy(out, l.order)
	return out
}

const quantityUnits = `g|gm|gms|gram|grams|kg|kilogram|ml|millilitre|l|litre|ltr|pieces?|pcs|nos?|units?`

func newLibrary() *Library {
	lib := &Library{
		order: []FieldType{
			FieldMRP, FieldNetQuantity, FieldManufacturer, FieldCountryOrigin,
			FieldManufacturingDate, FieldExpiryDate, FieldBatchNumber, FieldFSSAILicense,
		},
		patterns: map[FieldType][]*regexp.Regexp{},
		kinds: map[FieldType]kind{
			FieldMRP:               kindMonetary,
			FieldNetQuantity:       kindQuantity,
			FieldManufacturer:      kindFreeText,
			FieldCountryOrigin:     kindFreeText,
			FieldManufacturingDate: kindDate,
			FieldExpiryDate:        kindDate,
			FieldBatchNumber:       kindGeneric,
			FieldFSSAILicense:      kindGeneric,
		},
	}

	add := func(ft FieldType, exprs ...string) {
		for _, expr := range exprs {
			lib.patterns[ft] = append(lib.patterns[ft], regexp.MustCompile(`(?im)`+expr))
		}
	}

	add(FieldMRP,
		`(?:MRP|M\.R\.P\.?|Maximum Retail Price|Max\.?\s*Retail\s*Price)[:\s]*₹?\s*Rs\.?\s*(\d{1,4}(?:\.\d{2})?)`,
		`₹\s*(\d{1,4}(?:\.\d{2})?)\s*(?:only|/-)?`,
		`Rs\.?\s*(\d{1,4}(?:\.\d{2})?)\s*(?:only|/-)?`,
		`Price[:\s]*₹?\s*Rs\.?\s*(\d{1,4}(?:\.\d{2})?)`,
		`MRP\s*[:\-]?\s*₹?\s*Rs\.?\s*(\d{1,4}(?:\.\d{2})?)`,
		// Prices quoted in parentheses
		`\(₹?\s*Rs\.?\s*(\d{1,4}(?:\.\d{2})?)\)`,
	)

	add(FieldNetQuantity,
		`(?:Net\s*Qty\.?|Net\s*Quantity|Net\s*Wt\.?|Net\s*Weight|Contents?|Qty\.?)[:\s]*(\d+(?:\.\d+)?)\s*(`+quantityUnits+`)`,
		`(\d+(?:\.\d+)?)\s*(`+quantityUnits+`)(?:\s|$|\.)`,
		`Quantity[:\s]*(\d+(?:\.\d+)?)\s*(`+quantityUnits+`)`,
		`Weight[:\s]*(\d+(?:\.\d+)?)\s*(g|gm|gms|gram|grams|kg|kilogram)`,
		// Weight tacked onto the end of a product name
		`(\d+(?:\.\d+)?)\s*(g|gm|gms|kg|ml|l|ltr)\s*(?:pack|packet|bottle|can|jar)?$`,
	)

	add(FieldManufacturer,
		`(?:Manufactured\s*by|Mfd\.?\s*by|Producer|Made\s*by|Manufacturer)[:\s]*((?:[A-Za-z][A-Za-z0-9\s.,&\-']{5,50}))`,
		`(?:Mfr\.?|Manufacturer)[:\s]*((?:[A-Za-z][A-Za-z0-9\s.,&\-']{5,50}))`,
		`(?:Packed\s*by|Packaged\s*by|Packer)[:\s]*((?:[A-Za-z][A-Za-z0-9\s.,&\-']{5,50}))`,
		`(?:Marketed\s*by|Marketer)[:\s]*((?:[A-Za-z][A-Za-z0-9\s.,&\-']{5,50}))`,
	)

	add(FieldCountryOrigin,
		`(?:Country\s*of\s*Origin|Made\s*in|Origin)[:\s]*((?:[A-Za-z\s]{3,20}))`,
		`(?:Imported\s*from|Product\s*of)[:\s]*((?:[A-Za-z\s]{3,20}))`,
		`Made\s*in[:\s]*((?:[A-Za-z\s]{3,20}))`,
		// Common countries called out bare
		`\b(India|China|USA|UK|Germany|Japan|South\s*Korea|Thailand|Malaysia|Singapore)\b`,
	)

	add(FieldManufacturingDate,
		`(?:Mfg\.?\s*Date|Manufacturing\s*Date|Manufactured\s*on|Date\s*of\s*Mfg\.?|DOM)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`,
		`(?:Mfg\.?\s*Date|Manufacturing\s*Date)[:\s]*(\d{1,2}\s*[/\-.]\s*\d{1,2}\s*[/\-.]\s*\d{2,4})`,
		`(?:Mfg\.?\s*Date|Manufacturing\s*Date)[:\s]*(\d{1,2}\s*(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s*\d{2,4})`,
		// Standalone dates, restricted to four-digit years
		`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})\b`,
	)

	add(FieldExpiryDate,
		`(?:Best\s*Before|Expiry\s*Date|Exp\.?\s*Date|Use\s*by|Use\s*before)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`,
		`(?:Expires\s*on|Valid\s*till|Valid\s*until)[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`,
		`(?:Best\s*Before|Exp\.?\s*Date)[:\s]*(\d{1,2}\s*(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s*\d{2,4})`,
		`BB[:\s]*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`,
	)

	add(FieldBatchNumber,
		`(?:Batch\s*No\.?|Lot\s*No\.?|Batch)[:\s]*([A-Za-z0-9\-/]{3,15})`,
		`(?:Lot|L\.)[:\s]*([A-Za-z0-9\-/]{3,15})`,
		`Batch[:\s]*([A-Za-z0-9\-/]{3,15})`,
	)

	add(FieldFSSAILicense,
		`(?:FSSAI\s*Lic\.?\s*No\.?|FSSAI\s*License)[:\s]*(\d{14})`,
		`FSSAI[:\s]*(\d{14})`,
		`Lic\.?\s*No\.?[:\s]*(\d{14})`,
	)

	return lib
}

// unitSynonyms normalizes quantity unit spellings.
var unitSynonyms = map[string]string{
	"gm": "g", "gms": "g", "gram": "g", "grams": "g",
	"kilogram": "kg", "millilitre": "ml", "litre": "l",
	"ltr": "l", "pieces": "pcs", "nos": "pcs", "units": "pcs",
}

// Date shapes accepted by the validator. Shape-only on purpose: calendar
// validity is not checked, so "41/13/2024" passes.
var dateShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}$`),
	regexp.MustCompile(`(?i)^\d{1,2}\s*(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s*\d{2,4}$`),
}

// ValidDateShape reports whether a captured date string has a plausible
// date shape.
func ValidDateShape(s string) bool {
	for _, re := range dateShapes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
