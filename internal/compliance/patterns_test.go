package compliance

import "testing"

func TestValidDateShape(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"12/01/2024", true},
		{"1-1-24", true},
		{"12.01.2024", true},
		{"15 Mar 2024", true},
		{"15Mar2024", true},
		// Shape-only: calendar validity is not checked.
		{"41/13/2024", true},
		{"2024/01/01", false},
		{"12/01", false},
		{"January 2024", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := ValidDateShape(tt.date); got != tt.want {
				t.Errorf("ValidDateShape(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestExtractFieldsPerType(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field FieldType
		want  string
	}{
		{"mrp with rupee sign", "MRP: ₹150", FieldMRP, "₹150"},
		{"mrp with paise", "M.R.P. Rs. 99.50 only", FieldMRP, "₹99.50"},
		{"mrp in parentheses", "(Rs. 45)", FieldMRP, "₹45"},
		{"quantity unit synonym gms", "Net Wt: 250 gms", FieldNetQuantity, "250 g"},
		{"quantity unit synonym ltr", "Contents: 1 ltr", FieldNetQuantity, "1 l"},
		{"quantity pieces", "Qty: 10 pieces", FieldNetQuantity, "10 pcs"},
		{"quantity decimal", "Net Weight: 1.5 kg", FieldNetQuantity, "1.5 kg"},
		{"manufacturer", "Mfd. by: Sunrise Agro Pvt. Ltd.", FieldManufacturer, "Sunrise Agro Pvt. Ltd."},
		{"packer counts as manufacturer", "Packed by: Golden Harvest Mills", FieldManufacturer, "Golden Harvest Mills"},
		{"country labeled", "Country of Origin: India", FieldCountryOrigin, "India"},
		{"country bare mention", "Proudly made for the world from India", FieldCountryOrigin, "India"},
		{"mfg date", "Mfg Date: 05/11/2023", FieldManufacturingDate, "05/11/2023"},
		{"mfg date month name", "Mfg Date: 5 Nov 2023", FieldManufacturingDate, "5 Nov 2023"},
		{"expiry best before", "Best Before: 05/11/2025", FieldExpiryDate, "05/11/2025"},
		{"expiry bb form", "BB: 01-06-25", FieldExpiryDate, "01-06-25"},
		{"batch number", "Batch No: AX-4417", FieldBatchNumber, "AX-4417"},
		{"fssai", "FSSAI Lic No: 10012031000211", FieldFSSAILicense, "10012031000211"},
	}

	p := NewProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := p.ExtractFields(tt.text)
			if got := fields[tt.field]; got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFieldsRejections(t *testing.T) {
	p := NewProcessor()

	// Free text shorter than four characters after cleanup is rejected.
	if fields := p.ExtractFields("Made by: A B"); fields[FieldManufacturer] != "" {
		t.Errorf("short manufacturer accepted: %q", fields[FieldManufacturer])
	}
	// FSSAI licenses are exactly 14 digits.
	if fields := p.ExtractFields("FSSAI: 12345"); fields[FieldFSSAILicense] != "" {
		t.Errorf("short license accepted: %q", fields[FieldFSSAILicense])
	}
	// No date shape, no detection.
	if fields := p.ExtractFields("nothing to see"); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}
}

func TestExtractFieldsFirstPatternWins(t *testing.T) {
	p := NewProcessor()
	// The labeled MRP pattern outranks the bare rupee pattern.
	fields := p.ExtractFields("₹999 special offer\nMRP: Rs. 150")
	if fields[FieldMRP] != "₹150" {
		t.Errorf("mrp = %q, want ₹150", fields[FieldMRP])
	}
}

func TestLibraryTypesOrdered(t *testing.T) {
	want := []FieldType{
		FieldMRP, FieldNetQuantity, FieldManufacturer, FieldCountryOrigin,
		FieldManufacturingDate, FieldExpiryDate, FieldBatchNumber, FieldFSSAILicense,
	}
	got := DefaultLibrary().Types()
	if len(got) != len(want) {
		t.Fatalf("got %d types, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("types[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
