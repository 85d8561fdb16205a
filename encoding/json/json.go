// Package json is the single import point for JSON encoding
package json

import "encoding/json"

// Implementations
var (
	Marshal       = json.Marshal
	Unmarshal     = json.Unmarshal
	MarshalIndent = json.MarshalIndent
	NewEncoder    = json.NewEncoder
	NewDecoder    = json.NewDecoder
	Valid         = json.Valid
)

// RawMessage is a raw encoded JSON value
type RawMessage = json.RawMessage
