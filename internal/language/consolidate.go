// Package language reconciles the inconsistent language-code
// taxonomies of upstream AI providers into one consolidated selection
// model plus a provider-compatibility matrix.
//
// Region-only variants of the same language merge (en, en-US, en-GB
// are all "english") while script-distinct variants stay apart (zh-CN
// is simplified Chinese, zh-TW is traditional). The matrix answers
// "which providers can handle this consolidated language", which
// drives model/language compatibility checks and auto-fallback.
package language

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	lang "golang.org/x/text/language"

	"media-translator/internal/api"
)

// AutoDetectID is the canonical id of the pseudo-language that asks
// the provider to detect the source language itself. It always sorts
// first in a consolidated list.
const AutoDetectID = "auto-detect"

// Variant is one provider-specific spelling of a consolidated
// language.
type Variant struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Consolidated is one entry of the deduplicated selection model.
type Consolidated struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Variants    []Variant `json:"variants"`
}

// canonicalIDs maps provider language codes to canonical ids. Lookup
// is case-insensitive. Codes absent from the table canonicalize to
// themselves (lowercased), so an unknown provider code still gets a
// stable id.
var canonicalIDs = map[string]string{
	"auto":   AutoDetectID,
	"detect": AutoDetectID,

	"en": "english", "en-us": "english", "en-gb": "english", "en-au": "english",
	"en-ca": "english", "en-nz": "english", "en-in": "english",

	// Chinese splits by script, not region: simplified and traditional
	// must never merge.
	"zh": "chinese-simplified", "zh-cn": "chinese-simplified",
	"zh-hans": "chinese-simplified", "zh-sg": "chinese-simplified",
	"zh-tw": "chinese-traditional", "zh-hk": "chinese-traditional",
	"zh-hant": "chinese-traditional",

	"es": "spanish", "es-es": "spanish", "es-mx": "spanish", "es-419": "spanish",
	"fr": "french", "fr-fr": "french", "fr-ca": "french",
	"de": "german", "de-de": "german", "de-at": "german", "de-ch": "german",
	"pt": "portuguese", "pt-pt": "portuguese", "pt-br": "portuguese",
	"it": "italian", "it-it": "italian",
	"nl": "dutch", "nl-nl": "dutch", "nl-be": "dutch",
	"ru": "russian", "ru-ru": "russian",
	"ja": "japanese", "ja-jp": "japanese",
	"ko": "korean", "ko-kr": "korean",
	"ar": "arabic", "ar-sa": "arabic", "ar-eg": "arabic",
	"hi": "hindi", "hi-in": "hindi",
	"tr": "turkish", "tr-tr": "turkish",
	"pl": "polish", "pl-pl": "polish",
	"sv": "swedish", "sv-se": "swedish",
	"no": "norwegian", "nb": "norwegian", "nn": "norwegian", "nb-no": "norwegian",
	"da": "danish", "da-dk": "danish",
	"fi": "finnish", "fi-fi": "finnish",
	"cs": "czech", "cs-cz": "czech",
	"sk": "slovak",
	"uk": "ukrainian", "uk-ua": "ukrainian",
	"el": "greek", "el-gr": "greek",
	"he": "hebrew", "iw": "hebrew", "he-il": "hebrew",
	"th": "thai", "th-th": "thai",
	"vi": "vietnamese", "vi-vn": "vietnamese",
	"id": "indonesian", "id-id": "indonesian",
	"ms": "malay",
	"ro": "romanian", "ro-ro": "romanian",
	"hu": "hungarian", "hu-hu": "hungarian",
	"bg": "bulgarian",
	"hr": "croatian",
	"sr": "serbian",
	"sl": "slovenian",
	"lt": "lithuanian",
	"lv": "latvian",
	"et": "estonian",
	"fa": "persian",
	"ur": "urdu",
	"bn": "bengali",
	"ta": "tamil",
	"te": "telugu",
	"tl": "tagalog", "fil": "tagalog",
	"sw": "swahili",
	"ca": "catalan",
	"eu": "basque",
	"gl": "galician",
	"is": "icelandic",
	"ga": "irish",
	"cy": "welsh",
	"af": "afrikaans",
}

// displayNames maps canonical ids to user-facing names. Unknown
// canonical ids fall back to the name that arrived with the
// first-seen variant.
var displayNames = map[string]string{
	AutoDetectID:          "Auto-detect",
	"english":             "English",
	"chinese-simplified":  "Chinese (Simplified)",
	"chinese-traditional": "Chinese (Traditional)",
	"spanish":             "Spanish",
	"french":              "French",
	"german":              "German",
	"portuguese":          "Portuguese",
	"italian":             "Italian",
	"dutch":               "Dutch",
	"russian":             "Russian",
	"japanese":            "Japanese",
	"korean":              "Korean",
	"arabic":              "Arabic",
	"hindi":               "Hindi",
	"turkish":             "Turkish",
	"polish":              "Polish",
	"swedish":             "Swedish",
	"norwegian":           "Norwegian",
	"danish":              "Danish",
	"finnish":             "Finnish",
	"czech":               "Czech",
	"slovak":              "Slovak",
	"ukrainian":           "Ukrainian",
	"greek":               "Greek",
	"hebrew":              "Hebrew",
	"thai":                "Thai",
	"vietnamese":          "Vietnamese",
	"indonesian":          "Indonesian",
	"malay":               "Malay",
	"romanian":            "Romanian",
	"hungarian":           "Hungarian",
	"bulgarian":           "Bulgarian",
	"croatian":            "Croatian",
	"serbian":             "Serbian",
	"slovenian":           "Slovenian",
	"lithuanian":          "Lithuanian",
	"latvian":             "Latvian",
	"estonian":            "Estonian",
	"persian":             "Persian",
	"urdu":                "Urdu",
	"bengali":             "Bengali",
	"tamil":               "Tamil",
	"telugu":              "Telugu",
	"tagalog":             "Tagalog",
	"swahili":             "Swahili",
	"catalan":             "Catalan",
	"basque":              "Basque",
	"galician":            "Galician",
	"icelandic":           "Icelandic",
	"irish":               "Irish",
	"welsh":               "Welsh",
	"afrikaans":           "Afrikaans",
}

// CanonicalID maps a provider language code to its canonical id.
func CanonicalID(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	if id, ok := canonicalIDs[key]; ok {
		return id
	}
	return key
}

// Consolidate merges per-provider language lists into the deduplicated
// selection model. Exact (code, provider) repeats collapse; distinct
// codes from the same provider stay as separate variants. The result
// is rebuilt from scratch on every call: auto-detect first, remainder
// alphabetical by display name under English collation.
func Consolidate(byProvider map[string][]api.Language) []Consolidated {
	type seenKey struct{ code, provider string }

	entries := make(map[string]*Consolidated)
	seen := make(map[seenKey]bool)

	// Providers in sorted order so first-seen fallbacks are stable
	// regardless of map iteration.
	providers := make([]string, 0, len(byProvider))
	for p := range byProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	for _, provider := range providers {
		for _, l := range byProvider[provider] {
			key := seenKey{code: l.Code, provider: provider}
			if seen[key] {
				continue
			}
			seen[key] = true

			id := CanonicalID(l.Code)
			entry, ok := entries[id]
			if !ok {
				name, known := displayNames[id]
				if !known {
					name = l.Name
				}
				entry = &Consolidated{ID: id, DisplayName: name}
				entries[id] = entry
			}
			entry.Variants = append(entry.Variants, Variant{
				Code:     l.Code,
				Name:     l.Name,
				Provider: provider,
			})
		}
	}

	out := make([]Consolidated, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *entry)
	}

	coll := collate.New(lang.English)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == AutoDetectID {
			return true
		}
		if out[j].ID == AutoDetectID {
			return false
		}
		return coll.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out
}

// BuildCompatibilityMatrix records, for each canonical language id,
// which of the available providers can handle it. Provider order per
// id is first-seen over availableProviders.
func BuildCompatibilityMatrix(byProvider map[string][]api.Language, availableProviders []string) map[string][]string {
	matrix := make(map[string][]string)
	recorded := make(map[string]map[string]bool)

	for _, provider := range availableProviders {
		for _, l := range byProvider[provider] {
			id := CanonicalID(l.Code)
			if recorded[id] == nil {
				recorded[id] = make(map[string]bool)
			}
			if recorded[id][provider] {
				continue
			}
			recorded[id][provider] = true
			matrix[id] = append(matrix[id], provider)
		}
	}
	return matrix
}

// BestVariantForProvider picks the code to send a given provider for a
// consolidated language: a bare code without a region or script suffix
// when the provider offers one, otherwise the provider's first
// variant. The second return is false when the provider has no variant
// for this language at all.
func BestVariantForProvider(c Consolidated, provider string) (string, bool) {
	first := ""
	for _, v := range c.Variants {
		if v.Provider != provider {
			continue
		}
		if !strings.ContainsAny(v.Code, "-_") {
			return v.Code, true
		}
		if first == "" {
			first = v.Code
		}
	}
	if first == "" {
		return "", false
	}
	return first, true
}
