package models

import "encoding/json"

// Envelope is the {success, message, data} wrapper the backend uses for
// every response. Data stays raw until the caller knows its shape.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
