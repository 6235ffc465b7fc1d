package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-translator/internal/api"
)

func langs(pairs ...string) []api.Language {
	out := make([]api.Language, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, api.Language{Code: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func findByID(t *testing.T, list []Consolidated, id string) Consolidated {
	t.Helper()
	for _, c := range list {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("no consolidated entry with id %q", id)
	return Consolidated{}
}

func TestRegionVariantsMergeScriptVariantsSplit(t *testing.T) {
	input := map[string][]api.Language{
		"whisper": langs("en", "English", "en-US", "English (US)", "zh-CN", "Chinese"),
		"nova":    langs("en-GB", "English (UK)", "zh-TW", "Chinese (Taiwan)"),
	}

	out := Consolidate(input)

	english := findByID(t, out, "english")
	assert.Len(t, english.Variants, 3)
	assert.Equal(t, "English", english.DisplayName)

	simplified := findByID(t, out, "chinese-simplified")
	traditional := findByID(t, out, "chinese-traditional")
	assert.Len(t, simplified.Variants, 1)
	assert.Len(t, traditional.Variants, 1)
	assert.Equal(t, "zh-CN", simplified.Variants[0].Code)
	assert.Equal(t, "zh-TW", traditional.Variants[0].Code)
}

func TestConsolidateKeepsDistinctCodesFromSameProvider(t *testing.T) {
	input := map[string][]api.Language{
		"nova": langs("de", "German", "de-DE", "German (Germany)", "de", "German"),
	}

	out := Consolidate(input)
	german := findByID(t, out, "german")

	// de appears twice in the input but only once as a variant; de-DE is
	// a genuinely distinct pair and stays.
	require.Len(t, german.Variants, 2)
	assert.Equal(t, "de", german.Variants[0].Code)
	assert.Equal(t, "de-DE", german.Variants[1].Code)
}

func TestConsolidateEveryPairAppearsExactlyOnce(t *testing.T) {
	input := map[string][]api.Language{
		"whisper": langs("en", "English", "ja", "Japanese", "xx-klingon", "Klingon"),
		"nova":    langs("en", "English", "fr", "French"),
	}

	out := Consolidate(input)

	type pair struct{ code, provider string }
	found := make(map[pair]int)
	for _, c := range out {
		for _, v := range c.Variants {
			found[pair{v.Code, v.Provider}]++
		}
	}

	want := []pair{
		{"en", "whisper"}, {"ja", "whisper"}, {"xx-klingon", "whisper"},
		{"en", "nova"}, {"fr", "nova"},
	}
	assert.Len(t, found, len(want))
	for _, p := range want {
		assert.Equal(t, 1, found[p], "pair %v must appear exactly once", p)
	}

	// Unmapped codes canonicalize to themselves and keep the supplied
	// name.
	klingon := findByID(t, out, "xx-klingon")
	assert.Equal(t, "Klingon", klingon.DisplayName)
}

func TestConsolidateIsDeterministic(t *testing.T) {
	input := map[string][]api.Language{
		"whisper": langs("auto", "Detect", "ja", "Japanese", "de", "German"),
		"nova":    langs("fr", "French", "en", "English"),
	}

	first := Consolidate(input)
	second := Consolidate(input)
	assert.Equal(t, first, second)
}

func TestConsolidateOrdersAutoDetectFirstThenAlphabetical(t *testing.T) {
	input := map[string][]api.Language{
		"whisper": langs("ja", "Japanese", "auto", "Detect language", "de", "German", "fr", "French"),
	}

	out := Consolidate(input)
	require.Len(t, out, 4)
	assert.Equal(t, AutoDetectID, out[0].ID)
	assert.Equal(t, "French", out[1].DisplayName)
	assert.Equal(t, "German", out[2].DisplayName)
	assert.Equal(t, "Japanese", out[3].DisplayName)
}

func TestBuildCompatibilityMatrix(t *testing.T) {
	input := map[string][]api.Language{
		"whisper": langs("en", "English", "en-US", "English (US)", "ja", "Japanese"),
		"nova":    langs("en-GB", "English (UK)"),
		"legacy":  langs("en", "English"),
	}

	matrix := BuildCompatibilityMatrix(input, []string{"whisper", "nova"})

	// legacy is not available, so it never appears; duplicate canonical
	// hits from one provider collapse; order is first-seen.
	assert.Equal(t, []string{"whisper", "nova"}, matrix["english"])
	assert.Equal(t, []string{"whisper"}, matrix["japanese"])
	_, hasLegacyOnly := matrix["legacy"]
	assert.False(t, hasLegacyOnly)
}

func TestBestVariantForProvider(t *testing.T) {
	c := Consolidated{
		ID: "english",
		Variants: []Variant{
			{Code: "en-US", Provider: "whisper"},
			{Code: "en", Provider: "whisper"},
			{Code: "en-GB", Provider: "nova"},
		},
	}

	code, ok := BestVariantForProvider(c, "whisper")
	require.True(t, ok)
	assert.Equal(t, "en", code, "bare code wins over region-suffixed")

	code, ok = BestVariantForProvider(c, "nova")
	require.True(t, ok)
	assert.Equal(t, "en-GB", code, "fall back to first variant")

	_, ok = BestVariantForProvider(c, "legacy")
	assert.False(t, ok)
}

func TestCanonicalIDFallsBackToLowercasedCode(t *testing.T) {
	assert.Equal(t, "english", CanonicalID("EN-us"))
	assert.Equal(t, "xx-made-up", CanonicalID("XX-Made-Up"))
	assert.Equal(t, AutoDetectID, CanonicalID("auto"))
}
