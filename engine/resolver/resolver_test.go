package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

func baseDocument() document.Document {
	return document.Document{
		"branding": map[string]any{
			"companyName":  "Ally Platform",
			"primaryColor": "#007bff",
		},
		"features": map[string]any{
			"chatEnabled":   true,
			"exportEnabled": false,
		},
		"ai": map[string]any{
			"temperature": 0.7,
		},
	}
}

func resolverSchema() document.Schema {
	return document.Schema{
		"type": "object",
		"properties": map[string]any{
			"branding": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"companyName":  map[string]any{"type": "string", "minLength": float64(1)},
					"primaryColor": map[string]any{"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"},
				},
			},
			"features": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "boolean"},
			},
			"ai": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"temperature": map[string]any{
						"type":    "number",
						"minimum": float64(0),
						"maximum": float64(2),
					},
				},
			},
		},
	}
}

func TestResolverResolve(t *testing.T) {
	ctx := logger.ContextWithLogger(t.Context(), logger.NewForTests())
	r := New(resolverSchema())

	t.Run("Should return clone of base with no sources", func(t *testing.T) {
		base := baseDocument()
		resolved, err := r.Resolve(ctx, base)
		require.NoError(t, err)
		assert.True(t, base.Equal(resolved))
		require.NoError(t, resolved.Set("branding.companyName", "Mutated"))
		name, _ := base.Lookup("branding.companyName")
		assert.Equal(t, "Ally Platform", name)
	})

	t.Run("Should apply tenant override on top of base", func(t *testing.T) {
		tenantFragment := document.Document{
			"branding": map[string]any{"companyName": "Acme Corp"},
		}
		resolved, err := r.Resolve(ctx, baseDocument(), TenantSource(tenantFragment))
		require.NoError(t, err)
		name, _ := resolved.Lookup("branding.companyName")
		assert.Equal(t, "Acme Corp", name)
		color, _ := resolved.Lookup("branding.primaryColor")
		assert.Equal(t, "#007bff", color)
	})

	t.Run("Should let env override beat tenant override", func(t *testing.T) {
		tenantFragment := document.Document{
			"branding": map[string]any{"companyName": "Acme Corp"},
		}
		env := EnvSource([]string{"CONFIG_BRANDING_COMPANY_NAME=Env Corp"})
		resolved, err := r.Resolve(ctx, baseDocument(), env, TenantSource(tenantFragment))
		require.NoError(t, err)
		name, _ := resolved.Lookup("branding.companyName")
		assert.Equal(t, "Env Corp", name)
	})

	t.Run("Should disable a feature flag from the environment", func(t *testing.T) {
		env := EnvSource([]string{"CONFIG_FEATURES_CHAT_ENABLED=false"})
		resolved, err := r.Resolve(ctx, baseDocument(), env)
		require.NoError(t, err)
		enabled, _ := resolved.Lookup("features.chatEnabled")
		assert.Equal(t, false, enabled)
	})

	t.Run("Should prune unknown override paths without error", func(t *testing.T) {
		source := Source{Origin: OriginTenant, Values: map[string]any{
			"branding.companyName": "Acme Corp",
			"injected.path":        "evil",
		}}
		resolved, err := r.Resolve(ctx, baseDocument(), source)
		require.NoError(t, err)
		_, ok := resolved.Lookup("injected.path")
		assert.False(t, ok)
		name, _ := resolved.Lookup("branding.companyName")
		assert.Equal(t, "Acme Corp", name)
	})

	t.Run("Should reject an invalid layer wholesale and keep prior state", func(t *testing.T) {
		badTenant := Source{Origin: OriginTenant, Values: map[string]any{
			"branding.companyName":  "Acme Corp",
			"branding.primaryColor": "not-a-color",
		}}
		resolved, err := r.Resolve(ctx, baseDocument(), badTenant)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMergeRejected))
		name, _ := resolved.Lookup("branding.companyName")
		assert.Equal(t, "Ally Platform", name)
		color, _ := resolved.Lookup("branding.primaryColor")
		assert.Equal(t, "#007bff", color)
	})

	t.Run("Should keep valid layers when another layer is rejected", func(t *testing.T) {
		badTenant := Source{Origin: OriginTenant, Values: map[string]any{
			"ai.temperature": 9.5,
		}}
		env := EnvSource([]string{"CONFIG_BRANDING_COMPANY_NAME=Env Corp"})
		resolved, err := r.Resolve(ctx, baseDocument(), env, badTenant)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMergeRejected))
		name, _ := resolved.Lookup("branding.companyName")
		assert.Equal(t, "Env Corp", name)
		temperature, _ := resolved.Lookup("ai.temperature")
		assert.Equal(t, 0.7, temperature)
	})

	t.Run("Should resolve deterministically for identical inputs", func(t *testing.T) {
		tenantFragment := document.Document{
			"features": map[string]any{"exportEnabled": true},
		}
		env := EnvSource([]string{"CONFIG_AI_TEMPERATURE=1.5"})
		first, err := r.Resolve(ctx, baseDocument(), env, TenantSource(tenantFragment))
		require.NoError(t, err)
		second, err := r.Resolve(ctx, baseDocument(), env, TenantSource(tenantFragment))
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})
}
