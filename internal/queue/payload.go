/**
 * Job payload for compliance check queue jobs
 *
 * Compatible with the TypeScript API gateway, which serializes file
 * contents either as a base64 string or as a Node.js Buffer object.
 */

package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// JobPayload contains the actual job data
type JobPayload struct {
	CheckID        string   `json:"checkId"`
	UserID         string   `json:"userId,omitempty"`
	Filename       string   `json:"filename"`
	MimeType       string   `json:"mimeType,omitempty"`
	FileSize       int64    `json:"fileSize,omitempty"`
	FileBuffer     []byte   // Will be set by custom UnmarshalJSON
	RequiredFields []string `json:"requiredFields,omitempty"`
}

// UnmarshalJSON implements custom JSON unmarshaling for JobPayload to handle
// Buffer serialization. Supports both base64 string format (new) and Node.js
// Buffer object format (legacy).
func (p *JobPayload) UnmarshalJSON(data []byte) error {
	// Alias type avoids recursion
	type Alias JobPayload
	aux := &struct {
		FileBuffer interface{} `json:"fileBuffer,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	if aux.FileBuffer == nil {
		return nil
	}

	switch v := aux.FileBuffer.(type) {
	case string:
		// Base64 string format
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("failed to decode base64 fileBuffer: %w", err)
		}
		p.FileBuffer = decoded

	case map[string]interface{}:
		// Node.js Buffer object format: {"type":"Buffer","data":[...]}
		bufferType, ok := v["type"].(string)
		if !ok || bufferType != "Buffer" {
			return fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
		}
		dataArray, ok := v["data"].([]interface{})
		if !ok {
			return fmt.Errorf("Buffer object missing 'data' array")
		}
		p.FileBuffer = make([]byte, len(dataArray))
		for i, val := range dataArray {
			byteVal, ok := val.(float64)
			if !ok {
				return fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
			}
			p.FileBuffer[i] = byte(byteVal)
		}

	default:
		return fmt.Errorf("fileBuffer must be either base64 string or Buffer object, got %T", v)
	}

	return nil
}
