package configsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/engine/resolver"
	"github.com/allyplatform/ally-config/pkg/logger"
)

// AdminOperationError wraps reload/clear-cache failures. Unlike read-path
// errors these are surfaced directly to the admin caller: an admin issuing
// a reload needs to know it didn't happen.
type AdminOperationError struct {
	Op  string
	Err error
}

func (e *AdminOperationError) Error() string {
	return fmt.Sprintf("admin operation %s failed: %v", e.Op, e.Err)
}

func (e *AdminOperationError) Unwrap() error {
	return e.Err
}

// ReloadResult is the audit record of one reload: what changed between the
// old and new resolved base document.
type ReloadResult struct {
	RecordID   string         `json:"record_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Diff       *document.Diff `json:"diff"`
	OldVersion any            `json:"old_version"`
	NewVersion any            `json:"new_version"`
	OldCompany any            `json:"old_company"`
	NewCompany any            `json:"new_company"`
	PurgedKeys []string       `json:"purged_keys"`
}

// Controller owns the only code paths that mutate the live configuration
// view: reload and clear-cache. Both are serialized behind a mutex so a
// reload in flight is never overwritten by a concurrent one and every diff
// is computed against a settled before-state. Reads are never blocked by
// this lock.
type Controller struct {
	service  *Service
	notifier cache.NotificationSystem
	mu       sync.Mutex
}

// NewController builds the controller. notifier may be nil for
// single-instance deployments without an invalidation broadcast.
func NewController(service *Service, notifier cache.NotificationSystem) *Controller {
	return &Controller{service: service, notifier: notifier}
}

// Reload forces the store to re-read the base document, re-resolves,
// replaces the cache contents and returns the audit diff. Reloading with no
// underlying change succeeds and yields an empty diff.
func (c *Controller) Reload(ctx context.Context) (*ReloadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logger.FromContext(ctx).With("component", "reload_controller")
	svc := c.service

	oldBase := svc.store.LastGood()
	oldResolved, _ := svc.resolver.Resolve(ctx, oldBase, resolver.EnvSource(svc.environ()))

	newBase, err := svc.store.Load(ctx)
	if err != nil {
		return nil, &AdminOperationError{Op: "reload", Err: err}
	}
	newResolved, mergeErr := svc.resolver.Resolve(ctx, newBase, resolver.EnvSource(svc.environ()))
	if mergeErr != nil {
		log.Warn("override layer rejected during reload", "error", mergeErr)
	}

	purged, err := svc.cache.InvalidateAll(ctx)
	if err != nil {
		return nil, &AdminOperationError{Op: "reload", Err: err}
	}
	if err := svc.cache.Set(ctx, cacheKey("", "full"), newResolved); err != nil {
		return nil, &AdminOperationError{Op: "reload", Err: err}
	}

	diff := document.Compare(oldResolved, newResolved)
	result := &ReloadResult{
		RecordID:   uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Diff:       diff,
		OldVersion: lookupOr(oldResolved, "meta.version", "unknown"),
		NewVersion: lookupOr(newResolved, "meta.version", "unknown"),
		OldCompany: lookupOr(oldResolved, "branding.companyName", "unknown"),
		NewCompany: lookupOr(newResolved, "branding.companyName", "unknown"),
		PurgedKeys: purged,
	}
	log.Info("configuration reloaded",
		"record_id", result.RecordID,
		"diff", diff.String(),
		"old_company", result.OldCompany,
		"new_company", result.NewCompany,
	)
	c.broadcast(ctx, &cache.InvalidationEvent{
		RecordID:  result.RecordID,
		Keys:      purged,
		Reason:    "reload",
		Timestamp: result.Timestamp,
	})
	return result, nil
}

// ClearCache purges either one named section or the entire cache across
// both tiers and returns the purged keys. Clearing an already-empty cache
// succeeds with an empty key list.
func (c *Controller) ClearCache(ctx context.Context, section string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := logger.FromContext(ctx).With("component", "reload_controller")
	svc := c.service

	var (
		purged []string
		err    error
	)
	if section == "" {
		purged, err = svc.cache.InvalidateAll(ctx)
	} else {
		// A section purge also drops full-document entries: they embed the
		// section and would otherwise keep serving the stale copy.
		purged, err = svc.cache.InvalidatePattern(ctx, "*/"+section)
		if err == nil {
			var fullPurged []string
			fullPurged, err = svc.cache.InvalidatePattern(ctx, "*/full")
			purged = append(purged, fullPurged...)
		}
	}
	if err != nil {
		return nil, &AdminOperationError{Op: "clear-cache", Err: err}
	}
	log.Info("configuration cache cleared", "section", section, "purged", len(purged))
	c.broadcast(ctx, &cache.InvalidationEvent{
		RecordID:  uuid.NewString(),
		Scope:     section,
		Keys:      purged,
		Reason:    "clear-cache",
		Timestamp: time.Now().UTC(),
	})
	return purged, nil
}

func (c *Controller) broadcast(ctx context.Context, event *cache.InvalidationEvent) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.PublishInvalidation(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to broadcast invalidation event",
			"reason", event.Reason, "error", err)
	}
}

func lookupOr(doc document.Document, path string, fallback any) any {
	if value, ok := doc.Lookup(path); ok {
		return value
	}
	return fallback
}
