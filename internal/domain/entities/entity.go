package entities

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// VariantOrigin describes where an indexed name came from.
type VariantOrigin string

// Variant origins, in the order IndexEntity visits them.
const (
	OriginPrimary          VariantOrigin = "primary"
	OriginMythologyContext VariantOrigin = "mythology-context"
	OriginOriginal         VariantOrigin = "original"
	OriginTransliteration  VariantOrigin = "transliteration"
	OriginAlternative      VariantOrigin = "alternative"
	OriginCognate          VariantOrigin = "cognate"
	OriginTag              VariantOrigin = "tag"
)

// EntityRef is the index's own projection of an entity. It is created the
// first time an ID is indexed and refreshed in place on every re-index.
type EntityRef struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	PrimaryName string   `json:"primaryName"`
	Mythology   string   `json:"mythology"`
	Mythologies []string `json:"mythologies"`
}

// HasMythology reports whether m is listed in Mythologies. The primary
// Mythology field is display data and is not consulted.
func (e *EntityRef) HasMythology(m string) bool {
	for _, v := range e.Mythologies {
		if v == m {
			return true
		}
	}
	return false
}

// Variant is one name string under which an entity was indexed.
type Variant struct {
	Name      string        `json:"name"`
	Origin    VariantOrigin `json:"origin"`
	Language  string        `json:"language,omitempty"`
	Context   string        `json:"context,omitempty"`
	Meaning   string        `json:"meaning,omitempty"`
	Mythology string        `json:"mythology,omitempty"`
}

// IsPrimary reports whether the variant is the canonical name.
func (v Variant) IsPrimary() bool {
	return v.Origin == OriginPrimary
}

// combiningMarks is the Combining Diacritical Marks block, U+0300..U+036F.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// NormalizeName folds a name for matching: lowercase, trim, NFD, then drop
// combining diacritical marks. "Íshtar", "ISHTAR" and " ishtar " all
// normalize to "ishtar". Non-ASCII input is lowercased with context-aware
// rules, so "ΖΕΥΣ" and "Ζεύς" both normalize to "ζευς".
func NormalizeName(name string) string {
	if isASCII(name) {
		return strings.TrimFunc(strings.ToLower(name), isTrimmable)
	}
	// A Caser holds state and is not safe for concurrent use.
	s := strings.TrimFunc(cases.Lower(language.Und).String(name), isTrimmable)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	// Dropping a leading mark can expose whitespace; trim again so the
	// result is a fixed point.
	return strings.TrimFunc(out, isTrimmable)
}

func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
