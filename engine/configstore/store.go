package configstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// Store reads the base configuration document from a JSON or YAML file and
// validates it before handing it out. It keeps the last successfully loaded
// document so a broken source never leaves callers without configuration.
type Store struct {
	path   string
	schema document.Schema

	mu         sync.RWMutex
	lastGood   document.Document
	lastLoaded time.Time
}

// NewStore creates a store for the given base-document path. An empty path
// means the compiled-in default document is the source.
func NewStore(path string, schema document.Schema) *Store {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Store{path: path, schema: schema}
}

// Load reads the base document from source and validates it against the
// schema. On failure it returns the last-known-good document (or the
// compiled-in default) together with the error, so the returned document is
// always non-nil and schema-valid. Load never mutates the underlying source.
func (s *Store) Load(ctx context.Context) (document.Document, error) {
	log := logger.FromContext(ctx).With("component", "configstore")
	doc, err := s.read()
	if err != nil {
		log.Error("base document unreadable, using fallback", "path", s.path, "error", err)
		return s.fallback(), fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	if err := s.schema.Validate(ctx, doc); err != nil {
		log.Error("base document rejected by schema, using fallback", "path", s.path, "error", err)
		return s.fallback(), fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	s.mu.Lock()
	s.lastGood = doc.Clone()
	s.lastLoaded = time.Now()
	s.mu.Unlock()
	log.Debug("base document loaded", "path", s.path, "sections", len(doc))
	return doc, nil
}

// LastGood returns the most recent successfully loaded document, falling
// back to the compiled-in default when nothing has loaded yet.
func (s *Store) LastGood() document.Document {
	return s.fallback()
}

// LastLoaded reports when the base document last loaded successfully. The
// zero time means no successful load has happened.
func (s *Store) LastLoaded() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoaded
}

// Schema exposes the validation schema shared with the resolver.
func (s *Store) Schema() document.Schema {
	return s.schema
}

func (s *Store) fallback() document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastGood != nil {
		return s.lastGood.Clone()
	}
	return DefaultDocument()
}

func (s *Store) read() (document.Document, error) {
	if s.path == "" {
		return DefaultDocument(), nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	var doc document.Document
	switch filepath.Ext(s.path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML %s: %w", s.path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON %s: %w", s.path, err)
		}
	}
	return doc, nil
}
