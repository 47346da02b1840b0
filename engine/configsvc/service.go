package configsvc

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/allyplatform/ally-config/engine/configstore"
	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/engine/resolver"
	"github.com/allyplatform/ally-config/engine/tenant"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// BaseScope is the cache scope used when no tenant is selected.
const BaseScope = "base"

// Service is the configuration read pipeline: two-tier cache in front of
// the override resolver in front of the config store. Read operations never
// fail; the worst case is the compiled-in default document plus a degraded
// marker.
type Service struct {
	store    *configstore.Store
	resolver *resolver.Resolver
	cache    *cache.ConfigCache
	tenants  tenant.Repository
	environ  func() []string
}

// Option customizes service construction.
type Option func(*Service)

// WithTenantRepository wires per-tenant override lookups. Without it every
// scope resolves to the base document.
func WithTenantRepository(repo tenant.Repository) Option {
	return func(s *Service) { s.tenants = repo }
}

// WithEnviron overrides the environment source, used by tests to pin the
// override set.
func WithEnviron(environ func() []string) Option {
	return func(s *Service) { s.environ = environ }
}

// NewService wires the pipeline together.
func NewService(store *configstore.Store, configCache *cache.ConfigCache, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver.New(store.Schema()),
		cache:    configCache,
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the fully resolved document for a tenant scope. The
// second return reports degraded service: the document came from a fallback
// rather than a clean load.
func (s *Service) Resolve(ctx context.Context, tenantID string) (document.Document, bool) {
	key := cacheKey(tenantID, "full")
	if doc, err := s.cache.Get(ctx, key); err == nil {
		return doc, false
	}
	doc, degraded := s.resolveFresh(ctx, tenantID)
	return doc, degraded
}

// Section returns one named top-level section. found is false when the
// resolved document has no such section.
func (s *Service) Section(ctx context.Context, tenantID, name string) (document.Document, bool, bool) {
	key := cacheKey(tenantID, name)
	if doc, err := s.cache.Get(ctx, key); err == nil {
		return doc, true, false
	}
	full, degraded := s.Resolve(ctx, tenantID)
	section, found := full.Section(name)
	if !found {
		return nil, false, degraded
	}
	if !degraded {
		if err := s.cache.Set(ctx, key, section); err != nil {
			logger.FromContext(ctx).Warn("failed to cache section", "section", name, "error", err)
		}
	}
	return section, true, degraded
}

// FeatureFlag returns one feature flag. Unknown flags are false, never an
// error.
func (s *Service) FeatureFlag(ctx context.Context, tenantID, name string) (bool, bool) {
	features, found, degraded := s.Section(ctx, tenantID, "features")
	if !found {
		return false, degraded
	}
	raw, ok := features[name]
	if !ok {
		return false, degraded
	}
	enabled, ok := raw.(bool)
	if !ok {
		return false, degraded
	}
	return enabled, degraded
}

// Company returns the company/meta summary for a scope.
func (s *Service) Company(ctx context.Context, tenantID string) (map[string]any, bool) {
	doc, degraded := s.Resolve(ctx, tenantID)
	companyName, _ := doc.Lookup("branding.companyName")
	clientID, _ := doc.Lookup("meta.clientId")
	version, _ := doc.Lookup("meta.version")
	return map[string]any{
		"company_name": companyName,
		"client_id":    clientID,
		"version":      version,
	}, degraded
}

// Health reports pipeline state for the health endpoint.
type Health struct {
	Status     string           `json:"status"`
	LastLoaded time.Time        `json:"lastLoaded"`
	CacheTiers cache.TierStatus `json:"cacheTiers"`
}

// HealthCheck inspects the store and both cache tiers.
func (s *Service) HealthCheck(ctx context.Context) Health {
	status := "healthy"
	lastLoaded := s.store.LastLoaded()
	if lastLoaded.IsZero() {
		status = "degraded"
	}
	tiers := s.cache.Status(ctx)
	if tiers.SharedConfigured && !tiers.SharedHealthy {
		status = "degraded"
	}
	return Health{Status: status, LastLoaded: lastLoaded, CacheTiers: tiers}
}

// resolveFresh runs the full resolution pipeline: load base, gather
// override sources, merge, validate, populate both cache tiers. Concurrent
// callers racing on the same cold key all compute the same value, so the
// fill is idempotent and needs no coordination.
func (s *Service) resolveFresh(ctx context.Context, tenantID string) (document.Document, bool) {
	log := logger.FromContext(ctx).With("component", "configsvc")
	degraded := false
	base, loadErr := s.store.Load(ctx)
	if loadErr != nil {
		// Load already returned last-known-good or the compiled default.
		degraded = true
	}
	sources := []resolver.Source{resolver.EnvSource(s.environ())}
	if tenantID != "" && s.tenants != nil {
		override, err := s.tenants.Get(ctx, tenantID)
		switch {
		case err == nil:
			sources = append(sources, resolver.TenantSource(override.Fragment))
		case errors.Is(err, tenant.ErrNotFound):
			// Absence of a tenant override is not an error.
		default:
			log.Warn("tenant override lookup failed, resolving without tenant layer",
				"tenant_id", tenantID, "error", err)
			degraded = true
		}
	}
	resolved, mergeErr := s.resolver.Resolve(ctx, base, sources...)
	if mergeErr != nil {
		log.Warn("one or more override layers rejected", "tenant_id", tenantID, "error", mergeErr)
	}
	if !degraded {
		if err := s.cache.Set(ctx, cacheKey(tenantID, "full"), resolved); err != nil {
			log.Warn("failed to cache resolved document", "tenant_id", tenantID, "error", err)
		}
	}
	return resolved, degraded
}

// cacheKey derives the cache key from scope and section: "base/full",
// "tenant=acme/branding", ...
func cacheKey(tenantID, section string) string {
	scope := BaseScope
	if tenantID != "" {
		scope = "tenant=" + tenantID
	}
	return scope + "/" + section
}
