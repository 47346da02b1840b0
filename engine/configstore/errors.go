package configstore

import "errors"

var (
	// ErrConfigLoad signals that the backing source was unreadable or
	// unparsable. Read paths recover with the last-known-good document.
	ErrConfigLoad = errors.New("configstore: load failed")
	// ErrConfigValidation signals that a parsed document failed schema
	// validation. Invalid documents are never cached or served.
	ErrConfigValidation = errors.New("configstore: validation failed")
)
