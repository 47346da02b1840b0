package resolver

import (
	"context"
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// Source is one override layer: a set of dotted-path values at a single
// precedence level.
type Source struct {
	Origin Origin
	Values map[string]any
}

// TenantSource flattens a stored tenant fragment into an override source.
func TenantSource(fragment document.Document) Source {
	return Source{Origin: OriginTenant, Values: fragment.Flatten()}
}

// Resolver applies override sources on top of a base document and
// re-validates the result. The base document is the shape authority: paths
// an override supplies that the base does not know are pruned, so a
// malformed override can never inject unvalidated structure.
type Resolver struct {
	schema document.Schema
}

func New(schema document.Schema) *Resolver {
	return &Resolver{schema: schema}
}

// Resolve merges sources onto base in ascending precedence (tenant, then
// env) and validates after each layer. A layer whose merge fails validation
// is discarded wholesale and resolution continues from the prior state; the
// returned error wraps ErrMergeRejected with the layer's origin so callers
// can log it. The returned document is always schema-valid. The base is
// never mutated.
func (r *Resolver) Resolve(
	ctx context.Context,
	base document.Document,
	sources ...Source,
) (document.Document, error) {
	log := logger.FromContext(ctx).With("component", "resolver")
	resolved := base.Clone()
	var rejected []error
	for _, source := range orderByPrecedence(sources) {
		if len(source.Values) == 0 {
			continue
		}
		candidate, err := r.applySource(ctx, resolved, base, source)
		if err != nil {
			log.Warn("override merge rejected, keeping prior document",
				"origin", source.Origin, "error", err)
			rejected = append(rejected, fmt.Errorf("%w (origin=%s): %v", ErrMergeRejected, source.Origin, err))
			continue
		}
		resolved = candidate
	}
	if len(rejected) > 0 {
		return resolved, errors.Join(rejected...)
	}
	return resolved, nil
}

// applySource merges one override layer and re-validates. The current
// document stays untouched on failure.
func (r *Resolver) applySource(
	ctx context.Context,
	current, base document.Document,
	source Source,
) (document.Document, error) {
	log := logger.FromContext(ctx).With("component", "resolver")
	pruned := make(map[string]any, len(source.Values))
	for path, value := range source.Values {
		if !base.HasPath(path) {
			log.Warn("ignoring unknown override path", "origin", source.Origin, "path", path)
			continue
		}
		pruned[path] = value
	}
	if len(pruned) == 0 {
		return current, nil
	}
	overlay, err := document.FromFlat(pruned)
	if err != nil {
		return nil, fmt.Errorf("building overlay: %w", err)
	}
	candidate := current.Clone()
	if err := mergo.Merge(&candidate, overlay, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging overlay: %w", err)
	}
	if err := r.schema.Validate(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// orderByPrecedence returns sources lowest-precedence first so later merges
// win: tenant before env.
func orderByPrecedence(sources []Source) []Source {
	ordered := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.Origin == OriginTenant {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sources {
		if s.Origin == OriginEnv {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
