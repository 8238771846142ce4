/**
 * Static field catalog
 *
 * The seed set of trackable fields, used by the one-shot checker CLI and as
 * the fallback when the database catalog is empty.
 */

package storage

import (
	"context"

	"github.com/DEMONNN69/anvay/internal/compliance"
)

// StaticCatalog serves a fixed field set without a database.
type StaticCatalog struct {
	fields []compliance.CatalogField
}

// NewStaticCatalog creates a catalog over the given fields, or the seed set
// when none are given.
func NewStaticCatalog(fields ...compliance.CatalogField) *StaticCatalog {
	if len(fields) == 0 {
		fields = DefaultCatalogFields()
	}
	return &StaticCatalog{fields: fields}
}

// ActiveFields implements compliance.FieldCatalog.
func (s *StaticCatalog) ActiveFields(context.Context) ([]compliance.CatalogField, error) {
	out := make([]compliance.CatalogField, len(s.fields))
	copy(out, s.fields)
	return out, nil
}

// DefaultCatalogFields returns the seed catalog shipped with the schema.
func DefaultCatalogFields() []compliance.CatalogField {
	return []compliance.CatalogField{
		{Key: compliance.FieldMRP, Name: "Maximum Retail Price", Icon: "rupee"},
		{Key: compliance.FieldNetQuantity, Name: "Net Quantity", Icon: "package"},
		{Key: compliance.FieldManufacturer, Name: "Manufacturer", Icon: "building"},
		{Key: compliance.FieldCountryOrigin, Name: "Country of Origin", Icon: "globe"},
		{Key: compliance.FieldManufacturingDate, Name: "Manufacturing Date", Icon: "calendar"},
	}
}
