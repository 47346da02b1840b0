package configstore

import (
	_ "embed"
	"encoding/json"

	"github.com/allyplatform/ally-config/engine/document"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default-config.json
var defaultConfigJSON []byte

// DefaultSchema returns the compiled-in configuration schema.
func DefaultSchema() document.Schema {
	var schema document.Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		// The embedded schema is fixed at build time; an unmarshal failure
		// is a programming error, not a runtime condition.
		panic("configstore: embedded schema is not valid JSON: " + err.Error())
	}
	return schema
}

// DefaultDocument returns the compiled-in default configuration. This is the
// floor of the fallback chain: callers are never handed "no configuration".
func DefaultDocument() document.Document {
	var doc document.Document
	if err := json.Unmarshal(defaultConfigJSON, &doc); err != nil {
		panic("configstore: embedded default config is not valid JSON: " + err.Error())
	}
	return doc
}
