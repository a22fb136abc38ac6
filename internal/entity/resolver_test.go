package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	r := Default()

	tests := []struct {
		label string
		want  string
	}{
		{"Boeing Stock Price History.csv", "Boeing"},
		{"BOEING.csv", "Boeing"},
		{"Lockheed Martin Stock Price History (1).csv", "Lockheed Martin"},
		{"general dynamics weekly.xlsx", "General Dynamics"},
		{"Northrop Grumman.html", "Northrop Grumman"},
		{"RTX Corp Stock Price History.csv", "RTX Corp"},
		{"uploads/2024/boeing.csv", "Boeing"},
		{`C:\data\rtx corp.csv`, "RTX Corp"},
		{"unknown_ticker.csv", "unknown_ticker"},
		{"unknown_ticker.CSV", "unknown_ticker"},
		{"prices.2024.csv", "prices.2024"},
		{"archive.tar.gz", "archive.tar.gz"},
		{"  spaced name.txt  ", "spaced name"},
		{"no-extension", "no-extension"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.label))
		})
	}
}

func TestResolver_Deterministic(t *testing.T) {
	r := Default()
	first := r.Resolve("Boeing Stock Price History.csv")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Resolve("Boeing Stock Price History.csv"))
	}
}

func TestResolver_FirstMatchWins(t *testing.T) {
	// both built-in fragments appear; table order decides
	r := Default()
	assert.Equal(t, "Lockheed Martin", r.Resolve("boeing vs lockheed martin.csv"))
}

func TestResolver_ExtraAliasesComeFirst(t *testing.T) {
	r := NewResolver(
		Alias{Match: "Boeing Defense", Label: "Boeing Defense, Space & Security"},
		Alias{Match: "hii", Label: "Huntington Ingalls"},
		Alias{Match: " ", Label: "ignored"},
	)

	assert.Equal(t, "Boeing Defense, Space & Security", r.Resolve("boeing defense history.csv"))
	assert.Equal(t, "Boeing", r.Resolve("boeing.csv"))
	assert.Equal(t, "Huntington Ingalls", r.Resolve("HII Stock Price History.csv"))

	aliases := r.Aliases()
	require.Len(t, aliases, 7)
	assert.Equal(t, "boeing defense", aliases[0].Match)
	assert.Equal(t, "general dynamics", aliases[2].Match)
}

func TestResolver_AliasesIsACopy(t *testing.T) {
	r := Default()
	aliases := r.Aliases()
	aliases[0].Label = "changed"
	assert.Equal(t, "General Dynamics", r.Resolve("general dynamics.csv"))
}

func TestParseAliases(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		aliases, err := ParseAliases([]byte(`
aliases:
  - match: huntington ingalls
    label: Huntington Ingalls
  - match: l3harris
    label: L3Harris
`))
		require.NoError(t, err)
		require.Len(t, aliases, 2)
		assert.Equal(t, "L3Harris", aliases[1].Label)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseAliases([]byte("aliases:\n  - match: x\n    lable: X\n"))
		assert.Error(t, err)
	})

	t.Run("missing label", func(t *testing.T) {
		_, err := ParseAliases([]byte("aliases:\n  - match: x\n"))
		assert.ErrorContains(t, err, "label")
	})
}

func TestFromFile(t *testing.T) {
	r, err := FromFile("")
	require.NoError(t, err)
	assert.Len(t, r.Aliases(), 5)

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  - match: saab\n    label: Saab AB\n"), 0o644))

	r, err = FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Saab AB", r.Resolve("SAAB b.csv"))

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
