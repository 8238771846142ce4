package queue

import "testing"

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", []byte("%PDF-1.7\n%some content"), "application/pdf"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}, "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, "image/jpeg"},
		{"gif87", []byte("GIF87a trailing"), "image/gif"},
		{"gif89", []byte("GIF89a trailing"), "image/gif"},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"tiff little-endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x08}, "image/tiff"},
		{"tiff big-endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x08}, "image/tiff"},
		{"bmp", []byte("BM\x36\x00\x00\x00"), "image/bmp"},
		{"plain text", []byte("hello world"), ""},
		{"too short", []byte{0x89, 0x50}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMimeType(tt.data); got != tt.want {
				t.Errorf("DetectMimeType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSuffixForMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"application/pdf", ".pdf"},
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/tiff", ".tif"},
		{"application/zip", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := suffixForMime(tt.mime); got != tt.want {
			t.Errorf("suffixForMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
