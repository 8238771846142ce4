package compliance

import "testing"

const labelText = "MRP: Rs. 150\nNet Quantity: 500g\nManufactured by: ABC Foods"

func TestExtractFieldsLabel(t *testing.T) {
	p := NewProcessor()
	fields := p.ExtractFields(labelText)

	want := map[FieldType]string{
		FieldMRP:          "₹150",
		FieldNetQuantity:  "500 g",
		FieldManufacturer: "ABC Foods",
	}
	for ft, v := range want {
		if got := fields[ft]; got != v {
			t.Errorf("%s = %q, want %q", ft, got, v)
		}
	}
	for _, ft := range []FieldType{FieldCountryOrigin, FieldManufacturingDate, FieldExpiryDate} {
		if v, ok := fields[ft]; ok {
			t.Errorf("%s unexpectedly detected as %q", ft, v)
		}
	}
}

func TestScoreAndPolicyFullCatalog(t *testing.T) {
	p := NewProcessor()
	fields := p.ExtractFields(labelText)

	required := []FieldType{FieldMRP, FieldNetQuantity, FieldManufacturer}
	if score := Score(fields, required); score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
	if status := DefaultPolicy.Status(100); status != StatusPass {
		t.Errorf("status = %s, want pass", status)
	}
}

func TestScoreAndPolicyMissingFields(t *testing.T) {
	p := NewProcessor()
	fields := p.ExtractFields(labelText)

	required := []FieldType{
		FieldMRP, FieldNetQuantity, FieldManufacturer,
		FieldCountryOrigin, FieldManufacturingDate,
	}
	score := Score(fields, required)
	if score != 60 {
		t.Fatalf("score = %d, want 60", score)
	}
	if status := DefaultPolicy.Status(score); status != StatusPass {
		t.Errorf("default policy status = %s, want pass", status)
	}
	if status := StrictPolicy.Status(score); status != StatusPartial {
		t.Errorf("strict policy status = %s, want partial", status)
	}
}

func TestScore(t *testing.T) {
	detected := map[FieldType]string{
		FieldMRP:         "₹99",
		FieldBatchNumber: "B-123",
	}
	tests := []struct {
		name     string
		required []FieldType
		want     int
	}{
		{"empty required", nil, 0},
		{"none present", []FieldType{FieldExpiryDate}, 0},
		{"all present", []FieldType{FieldMRP, FieldBatchNumber}, 100},
		{"one of three", []FieldType{FieldMRP, FieldExpiryDate, FieldCountryOrigin}, 33},
		{"two of three rounds up", []FieldType{FieldMRP, FieldBatchNumber, FieldExpiryDate}, 67},
		{"extra detected ignored", []FieldType{FieldMRP}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(detected, tt.required); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusMonotonic(t *testing.T) {
	rank := map[Status]int{StatusFail: 0, StatusPartial: 1, StatusPass: 2}
	for _, policy := range []ThresholdPolicy{DefaultPolicy, StrictPolicy} {
		prev := policy.Status(0)
		for score := 1; score <= 100; score++ {
			cur := policy.Status(score)
			if rank[cur] < rank[prev] {
				t.Fatalf("policy %+v: status regressed from %s to %s at score %d",
					policy, prev, cur, score)
			}
			prev = cur
		}
	}
}

func TestFieldConfidences(t *testing.T) {
	p := NewProcessor()
	fields := map[FieldType]string{
		FieldMRP:               "₹150",
		FieldNetQuantity:       "500 g",
		FieldManufacturer:      "ABC Foods",
		FieldCountryOrigin:     "Sunrise Agro Exports Ltd",
		FieldManufacturingDate: "12/01/2024",
		FieldExpiryDate:        "12 Mar 2025",
		FieldBatchNumber:       "B-123",
		FieldFSSAILicense:      "12345678901234",
	}
	want := map[FieldType]float64{
		FieldMRP:               0.9,
		FieldNetQuantity:       0.8,
		FieldManufacturer:      0.5, // 9 chars: over 5, not over 10
		FieldCountryOrigin:     0.7, // long and mixed case
		FieldManufacturingDate: 0.9,
		FieldExpiryDate:        0.5, // month-name form
		FieldBatchNumber:       0.6,
		FieldFSSAILicense:      0.6,
	}

	got := p.FieldConfidences(fields)
	for ft, w := range want {
		if got[ft] != w {
			t.Errorf("%s confidence = %v, want %v", ft, got[ft], w)
		}
	}
	for ft, c := range got {
		if c < 0 || c > 1 {
			t.Errorf("%s confidence %v outside [0,1]", ft, c)
		}
	}
}

func TestFieldConfidenceEdges(t *testing.T) {
	p := NewProcessor()
	got := p.FieldConfidences(map[FieldType]string{
		FieldMRP:           "₹abc",
		FieldNetQuantity:   "some pieces",
		FieldManufacturer:  "AB",
		FieldCountryOrigin: "SUNRISE AGRO LTD",
	})
	if got[FieldMRP] != 0.3 {
		t.Errorf("invalid price confidence = %v, want 0.3", got[FieldMRP])
	}
	if got[FieldNetQuantity] != 0.4 {
		t.Errorf("unit without number confidence = %v, want 0.4", got[FieldNetQuantity])
	}
	if got[FieldManufacturer] != 0.3 {
		t.Errorf("short name confidence = %v, want 0.3", got[FieldManufacturer])
	}
	if got[FieldCountryOrigin] != 0.5 {
		t.Errorf("all-caps name confidence = %v, want 0.5", got[FieldCountryOrigin])
	}
}
