// Package entities contains core domain data structures.
package entities

import (
	"bytes"
	"encoding/json"
)

// EntityRecord is a mythological entity as supplied by a data source.
// Only ID and Name are required; every other field is optional.
//
// Decoding is tolerant: a field with the wrong JSON shape (for example a
// string where a list of tags is expected) is dropped and its key recorded in
// Malformed instead of failing the whole record.
type EntityRecord struct {
	ID                string             `json:"id" yaml:"id"`
	Name              string             `json:"name" yaml:"name"`
	Type              string             `json:"type,omitempty" yaml:"type,omitempty"`
	Mythology         string             `json:"mythology,omitempty" yaml:"mythology,omitempty"`
	Mythologies       []string           `json:"mythologies,omitempty" yaml:"mythologies,omitempty"`
	MythologyContexts []MythologyContext `json:"mythologyContexts,omitempty" yaml:"mythologyContexts,omitempty"`
	Linguistic        *Linguistic        `json:"linguistic,omitempty" yaml:"linguistic,omitempty"`
	Tags              []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category          string             `json:"category,omitempty" yaml:"category,omitempty"`

	// Malformed lists the keys that were present but could not be decoded.
	Malformed []string `json:"-" yaml:"-"`
}

// MythologyContext lists the names an entity goes by within one tradition.
type MythologyContext struct {
	Mythology string   `json:"mythology" yaml:"mythology"`
	Usage     string   `json:"usage,omitempty" yaml:"usage,omitempty"`
	Names     []string `json:"names,omitempty" yaml:"names,omitempty"`
}

// Linguistic holds script, transliteration and cross-language name data.
type Linguistic struct {
	OriginalName     string            `json:"originalName,omitempty" yaml:"originalName,omitempty"`
	Transliteration  string            `json:"transliteration,omitempty" yaml:"transliteration,omitempty"`
	AlternativeNames []AlternativeName `json:"alternativeNames,omitempty" yaml:"alternativeNames,omitempty"`
	Cognates         []Cognate         `json:"cognates,omitempty" yaml:"cognates,omitempty"`

	malformed []string
}

// AlternativeName is a name used for the entity in a given language or context.
type AlternativeName struct {
	Name     string `json:"name" yaml:"name"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Context  string `json:"context,omitempty" yaml:"context,omitempty"`
	Meaning  string `json:"meaning,omitempty" yaml:"meaning,omitempty"`
}

// Cognate is a related term in another language.
type Cognate struct {
	Term     string `json:"term" yaml:"term"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// HasRequired reports whether the record carries both an ID and a Name.
func (r *EntityRecord) HasRequired() bool {
	return r.ID != "" && r.Name != ""
}

// PrimaryMythology returns Mythology, falling back to the first entry of Mythologies.
func (r *EntityRecord) PrimaryMythology() string {
	if r.Mythology != "" {
		return r.Mythology
	}
	if len(r.Mythologies) > 0 {
		return r.Mythologies[0]
	}
	return ""
}

// Variants lists every name the record is known by, tagged with its origin:
// the primary name, mythology-context names, then the linguistic block
// (original, transliteration when it differs from Name, alternatives,
// cognates) and finally tags. Empty strings are not filtered here.
func (r *EntityRecord) Variants() []Variant {
	variants := []Variant{{Name: r.Name, Origin: OriginPrimary}}

	for _, mc := range r.MythologyContexts {
		for _, name := range mc.Names {
			variants = append(variants, Variant{
				Name:      name,
				Origin:    OriginMythologyContext,
				Mythology: mc.Mythology,
				Context:   mc.Usage,
			})
		}
	}

	if l := r.Linguistic; l != nil {
		if l.OriginalName != "" {
			variants = append(variants, Variant{Name: l.OriginalName, Origin: OriginOriginal})
		}
		if l.Transliteration != "" && l.Transliteration != r.Name {
			variants = append(variants, Variant{Name: l.Transliteration, Origin: OriginTransliteration})
		}
		for _, alt := range l.AlternativeNames {
			variants = append(variants, Variant{
				Name:     alt.Name,
				Origin:   OriginAlternative,
				Language: alt.Language,
				Context:  alt.Context,
				Meaning:  alt.Meaning,
			})
		}
		for _, cog := range l.Cognates {
			variants = append(variants, Variant{Name: cog.Term, Origin: OriginCognate, Language: cog.Language})
		}
	}

	for _, tag := range r.Tags {
		variants = append(variants, Variant{Name: tag, Origin: OriginTag})
	}

	return variants
}

// UnmarshalJSON decodes a record field by field, skipping malformed fields.
func (r *EntityRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = EntityRecord{}
	bad := func(key string) { r.Malformed = append(r.Malformed, key) }

	if !decodeField(raw, "id", &r.ID) {
		bad("id")
	}
	if !decodeField(raw, "name", &r.Name) {
		bad("name")
	}
	if !decodeField(raw, "type", &r.Type) {
		bad("type")
	}
	if !decodeField(raw, "mythology", &r.Mythology) {
		bad("mythology")
	}
	if !decodeField(raw, "mythologies", &r.Mythologies) {
		bad("mythologies")
	}
	if !decodeField(raw, "mythologyContexts", &r.MythologyContexts) {
		bad("mythologyContexts")
	}
	if !decodeField(raw, "tags", &r.Tags) {
		bad("tags")
	}
	if !decodeField(raw, "category", &r.Category) {
		bad("category")
	}

	var ling Linguistic
	switch ok := decodeField(raw, "linguistic", &ling); {
	case !ok:
		bad("linguistic")
	case hasValue(raw, "linguistic"):
		r.Linguistic = &ling
		for _, key := range ling.malformed {
			bad("linguistic." + key)
		}
		ling.malformed = nil
	}

	return nil
}

// UnmarshalJSON decodes the linguistic block, skipping malformed fields.
func (l *Linguistic) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = Linguistic{}
	if !decodeField(raw, "originalName", &l.OriginalName) {
		l.malformed = append(l.malformed, "originalName")
	}
	if !decodeField(raw, "transliteration", &l.Transliteration) {
		l.malformed = append(l.malformed, "transliteration")
	}
	if !decodeField(raw, "alternativeNames", &l.AlternativeNames) {
		l.malformed = append(l.malformed, "alternativeNames")
	}
	if !decodeField(raw, "cognates", &l.Cognates) {
		l.malformed = append(l.malformed, "cognates")
	}
	return nil
}

// decodeField decodes raw[key] into dst. Absent and null keys leave dst
// untouched and count as success; dst is only written on success.
func decodeField[T any](raw map[string]json.RawMessage, key string, dst *T) bool {
	if !hasValue(raw, key) {
		return true
	}
	var v T
	if err := json.Unmarshal(raw[key], &v); err != nil {
		return false
	}
	*dst = v
	return true
}

func hasValue(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
