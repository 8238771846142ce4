package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
)

func TestJobPayloadUnmarshalBase64Buffer(t *testing.T) {
	raw := []byte("label image bytes")
	data := fmt.Sprintf(`{
		"checkId": "chk-1",
		"userId": "user-7",
		"filename": "label.png",
		"mimeType": "image/png",
		"fileSize": %d,
		"fileBuffer": %q,
		"requiredFields": ["mrp", "net_quantity"]
	}`, len(raw), base64.StdEncoding.EncodeToString(raw))

	var p JobPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if p.CheckID != "chk-1" || p.UserID != "user-7" || p.Filename != "label.png" {
		t.Errorf("header fields = %q/%q/%q", p.CheckID, p.UserID, p.Filename)
	}
	if string(p.FileBuffer) != string(raw) {
		t.Errorf("FileBuffer = %q, want %q", p.FileBuffer, raw)
	}
	if len(p.RequiredFields) != 2 || p.RequiredFields[0] != "mrp" {
		t.Errorf("RequiredFields = %v", p.RequiredFields)
	}
}

func TestJobPayloadUnmarshalNodeBuffer(t *testing.T) {
	data := `{
		"checkId": "chk-2",
		"filename": "label.jpg",
		"fileBuffer": {"type": "Buffer", "data": [72, 101, 108, 108, 111]}
	}`

	var p JobPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if string(p.FileBuffer) != "Hello" {
		t.Errorf("FileBuffer = %q, want %q", p.FileBuffer, "Hello")
	}
}

func TestJobPayloadUnmarshalMissingBuffer(t *testing.T) {
	var p JobPayload
	if err := json.Unmarshal([]byte(`{"checkId": "chk-3"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if p.FileBuffer != nil {
		t.Errorf("FileBuffer = %v, want nil", p.FileBuffer)
	}
}

func TestJobPayloadUnmarshalRejectsBadBuffer(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid base64", `{"fileBuffer": "not@@base64!!"}`},
		{"wrong object type", `{"fileBuffer": {"type": "Blob", "data": [1]}}`},
		{"missing data array", `{"fileBuffer": {"type": "Buffer"}}`},
		{"non-numeric byte", `{"fileBuffer": {"type": "Buffer", "data": ["x"]}}`},
		{"number buffer", `{"fileBuffer": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p JobPayload
			if err := json.Unmarshal([]byte(tt.data), &p); err == nil {
				t.Errorf("Unmarshal(%s) expected error, got none", tt.data)
			}
		})
	}
}
