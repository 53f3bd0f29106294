package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	th, ok := Lookup("SEPIA")
	assert.True(t, ok)
	assert.Equal(t, "sepia", th.Key)

	th, ok = Lookup("Midnight")
	assert.True(t, ok)
	assert.Equal(t, Midnight.Key, th.Key)

	_, ok = Lookup("neon")
	assert.False(t, ok)
	assert.Equal(t, Dark.Key, Get("neon").Key)
}

func TestNextCycles(t *testing.T) {
	seen := map[string]bool{}
	th := Dark
	for range All() {
		seen[th.Key] = true
		th = th.Next()
	}
	assert.Equal(t, Dark.Key, th.Key)
	assert.Len(t, seen, len(All()))
}

func TestCSSVariables(t *testing.T) {
	css := Light.CSSVariables()
	assert.Contains(t, css, ":root {")
	assert.Contains(t, css, "--text: #1f2937;")
	assert.Contains(t, css, "--progress-to: #2563eb;")
}

func TestKeysSorted(t *testing.T) {
	assert.Equal(t, []string{"dark", "forest", "light", "midnight", "sepia"}, Keys())
}
