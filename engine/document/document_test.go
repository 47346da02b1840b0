package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		"meta": map[string]any{
			"version":  "1.0.0",
			"clientId": "acme",
		},
		"branding": map[string]any{
			"companyName":  "Acme Corp",
			"primaryColor": "#ff0000",
		},
		"features": map[string]any{
			"chatEnabled":   true,
			"exportEnabled": false,
		},
	}
}

func TestDocumentLookup(t *testing.T) {
	t.Run("Should resolve nested dotted paths", func(t *testing.T) {
		doc := sampleDocument()
		value, ok := doc.Lookup("branding.companyName")
		require.True(t, ok)
		assert.Equal(t, "Acme Corp", value)
	})

	t.Run("Should report missing paths", func(t *testing.T) {
		doc := sampleDocument()
		_, ok := doc.Lookup("branding.missing")
		assert.False(t, ok)
		_, ok = doc.Lookup("no.such.path")
		assert.False(t, ok)
	})

	t.Run("Should not traverse through leaf values", func(t *testing.T) {
		doc := sampleDocument()
		_, ok := doc.Lookup("meta.version.deeper")
		assert.False(t, ok)
	})
}

func TestDocumentSet(t *testing.T) {
	t.Run("Should set nested value creating intermediate maps", func(t *testing.T) {
		doc := Document{}
		require.NoError(t, doc.Set("ui.layout.sidebarPosition", "left"))
		value, ok := doc.Lookup("ui.layout.sidebarPosition")
		require.True(t, ok)
		assert.Equal(t, "left", value)
	})

	t.Run("Should overwrite existing leaf", func(t *testing.T) {
		doc := sampleDocument()
		require.NoError(t, doc.Set("branding.companyName", "New Corp"))
		value, _ := doc.Lookup("branding.companyName")
		assert.Equal(t, "New Corp", value)
	})

	t.Run("Should reject setting through non-mapping intermediate", func(t *testing.T) {
		doc := sampleDocument()
		err := doc.Set("meta.version.patch", 3)
		assert.Error(t, err)
	})
}

func TestDocumentFlatten(t *testing.T) {
	t.Run("Should flatten nested maps to dotted paths", func(t *testing.T) {
		doc := sampleDocument()
		flat := doc.Flatten()
		assert.Equal(t, "Acme Corp", flat["branding.companyName"])
		assert.Equal(t, true, flat["features.chatEnabled"])
		assert.NotContains(t, flat, "branding")
	})

	t.Run("Should keep sequences as leaves", func(t *testing.T) {
		doc := Document{"languages": map[string]any{"available": []any{"en", "de"}}}
		flat := doc.Flatten()
		assert.Equal(t, []any{"en", "de"}, flat["languages.available"])
	})

	t.Run("Should round trip through FromFlat", func(t *testing.T) {
		doc := sampleDocument()
		rebuilt, err := FromFlat(doc.Flatten())
		require.NoError(t, err)
		assert.True(t, doc.Equal(rebuilt))
	})
}

func TestDocumentPaths(t *testing.T) {
	t.Run("Should return sorted leaf paths", func(t *testing.T) {
		doc := sampleDocument()
		paths := doc.Paths()
		assert.Equal(t, []string{
			"branding.companyName",
			"branding.primaryColor",
			"features.chatEnabled",
			"features.exportEnabled",
			"meta.clientId",
			"meta.version",
		}, paths)
	})
}

func TestDocumentClone(t *testing.T) {
	t.Run("Should produce an independent copy", func(t *testing.T) {
		doc := sampleDocument()
		clone := doc.Clone()
		require.NoError(t, clone.Set("branding.companyName", "Mutated"))
		original, _ := doc.Lookup("branding.companyName")
		assert.Equal(t, "Acme Corp", original)
	})
}

func TestDocumentSection(t *testing.T) {
	t.Run("Should return one top-level section", func(t *testing.T) {
		doc := sampleDocument()
		section, ok := doc.Section("features")
		require.True(t, ok)
		assert.Equal(t, true, section["chatEnabled"])
	})

	t.Run("Should report unknown sections", func(t *testing.T) {
		doc := sampleDocument()
		_, ok := doc.Section("missing")
		assert.False(t, ok)
	})
}

func TestCompare(t *testing.T) {
	t.Run("Should report empty diff for identical documents", func(t *testing.T) {
		diff := Compare(sampleDocument(), sampleDocument())
		assert.True(t, diff.Empty())
	})

	t.Run("Should classify added changed and removed paths", func(t *testing.T) {
		oldDoc := sampleDocument()
		newDoc := sampleDocument()
		require.NoError(t, newDoc.Set("branding.companyName", "New Corp"))
		require.NoError(t, newDoc.Set("ui.theme", "dark"))
		delete(newDoc["features"].(map[string]any), "exportEnabled")

		diff := Compare(oldDoc, newDoc)
		assert.Equal(t, []string{"ui.theme"}, diff.Added)
		assert.Equal(t, []string{"branding.companyName"}, diff.Changed)
		assert.Equal(t, []string{"features.exportEnabled"}, diff.Removed)
	})
}
