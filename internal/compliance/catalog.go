package compliance

import "context"

// CatalogField is one trackable field as configured by the admin side:
// pattern key plus display name and icon for the API layer.
type CatalogField struct {
	Key  FieldType `json:"key"`
	Name string    `json:"name"`
	Icon string    `json:"icon"`
}

// FieldCatalog supplies the live ordered set of required fields. The core
// only reads it; administration happens elsewhere.
type FieldCatalog interface {
	ActiveFields(ctx context.Context) ([]CatalogField, error)
}
