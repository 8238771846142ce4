package storage

import (
	"context"
	"testing"

	"github.com/DEMONNN69/anvay/internal/compliance"
)

func TestStaticCatalogDefaults(t *testing.T) {
	fields, err := NewStaticCatalog().ActiveFields(context.Background())
	if err != nil {
		t.Fatalf("ActiveFields() error: %v", err)
	}

	if len(fields) != 5 {
		t.Fatalf("ActiveFields() returned %d fields, want 5", len(fields))
	}
	if fields[0].Key != compliance.FieldMRP {
		t.Errorf("first field = %q, want mrp", fields[0].Key)
	}
	for _, f := range fields {
		if f.Name == "" || f.Icon == "" {
			t.Errorf("field %q missing name or icon", f.Key)
		}
	}
}

func TestStaticCatalogCopiesOnRead(t *testing.T) {
	catalog := NewStaticCatalog(compliance.CatalogField{Key: "mrp", Name: "MRP", Icon: "rupee"})

	first, _ := catalog.ActiveFields(context.Background())
	first[0].Name = "mutated"

	second, _ := catalog.ActiveFields(context.Background())
	if second[0].Name != "MRP" {
		t.Errorf("catalog mutated through returned slice: %q", second[0].Name)
	}
}
