package ocr

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"pipe to I", "NET WT: 5OO g INDIA|N", "NET WT: 5OO g INDIAIN"},
		{"section sign", "§ee label", "See label"},
		{"cent sign", "¢ountry of Origin", "Country of Origin"},
		{"O between digits dropped", "MRP: 1O5", "MRP: 15"},
		{"l between digits dropped", "Batch 4l7", "Batch 47"},
		{"short lines dropped", "MRP: 150\nA\nNet Qty: 500 g", "MRP: 150\nNet Qty: 500 g"},
		{"symbol-only lines dropped", "MRP: 150\n***\nMade in India", "MRP: 150\nMade in India"},
		{"edge punctuation trimmed", "..Made in India..", "Made in India"},
		{"whitespace collapsed", "MRP:     150\n\n\nMade  in India", "MRP: 150\nMade in India"},
		{"zero not rewritten", "MRP: 150", "MRP: 150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTextKeepsRupeeValues(t *testing.T) {
	got := CleanText("MRP: ₹150\nNet Quantity: 500 g")
	want := "MRP: ₹150\nNet Quantity: 500 g"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
