package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRecord_UnmarshalJSON_Tolerant(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantMalformed []string
		check         func(t *testing.T, r *EntityRecord)
	}{
		{
			name:  "well formed",
			input: `{"id":"zeus","name":"Zeus","tags":["sky"],"mythologies":["greek"]}`,
			check: func(t *testing.T, r *EntityRecord) {
				assert.Equal(t, []string{"sky"}, r.Tags)
				assert.Equal(t, []string{"greek"}, r.Mythologies)
			},
		},
		{
			name:          "tags as string",
			input:         `{"id":"zeus","name":"Zeus","tags":"sky"}`,
			wantMalformed: []string{"tags"},
			check: func(t *testing.T, r *EntityRecord) {
				assert.Nil(t, r.Tags)
				assert.Equal(t, "Zeus", r.Name)
			},
		},
		{
			name:          "numeric id",
			input:         `{"id":12,"name":"Twelve"}`,
			wantMalformed: []string{"id"},
			check: func(t *testing.T, r *EntityRecord) {
				assert.False(t, r.HasRequired())
			},
		},
		{
			name:  "null fields are absent",
			input: `{"id":"a","name":"A","tags":null,"linguistic":null}`,
			check: func(t *testing.T, r *EntityRecord) {
				assert.Nil(t, r.Tags)
				assert.Nil(t, r.Linguistic)
			},
		},
		{
			name:          "nested malformed",
			input:         `{"id":"a","name":"A","linguistic":{"originalName":"Á","alternativeNames":{"name":"B"}}}`,
			wantMalformed: []string{"linguistic.alternativeNames"},
			check: func(t *testing.T, r *EntityRecord) {
				require.NotNil(t, r.Linguistic)
				assert.Equal(t, "Á", r.Linguistic.OriginalName)
				assert.Nil(t, r.Linguistic.AlternativeNames)
			},
		},
		{
			name:          "linguistic not an object",
			input:         `{"id":"a","name":"A","linguistic":"none"}`,
			wantMalformed: []string{"linguistic"},
			check: func(t *testing.T, r *EntityRecord) {
				assert.Nil(t, r.Linguistic)
			},
		},
		{
			name:          "mythology contexts with bad names",
			input:         `{"id":"a","name":"A","mythologyContexts":[{"mythology":"greek","names":"X"}]}`,
			wantMalformed: []string{"mythologyContexts"},
			check: func(t *testing.T, r *EntityRecord) {
				assert.Nil(t, r.MythologyContexts)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r EntityRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))
			assert.Equal(t, tt.wantMalformed, r.Malformed)
			if tt.check != nil {
				tt.check(t, &r)
			}
		})
	}
}

func TestEntityRecord_UnmarshalJSON_NotAnObject(t *testing.T) {
	var r EntityRecord
	assert.Error(t, json.Unmarshal([]byte(`["zeus"]`), &r))
}

func TestEntityRecord_PrimaryMythology(t *testing.T) {
	assert.Equal(t, "roman", (&EntityRecord{Mythology: "roman", Mythologies: []string{"greek"}}).PrimaryMythology())
	assert.Equal(t, "greek", (&EntityRecord{Mythologies: []string{"greek", "roman"}}).PrimaryMythology())
	assert.Empty(t, (&EntityRecord{}).PrimaryMythology())
}

func TestEntityRecord_Variants(t *testing.T) {
	r := EntityRecord{
		ID:   "thor",
		Name: "Thor",
		MythologyContexts: []MythologyContext{
			{Mythology: "germanic", Usage: "continental", Names: []string{"Donar"}},
		},
		Linguistic: &Linguistic{
			OriginalName:     "Þórr",
			Transliteration:  "Thor",
			AlternativeNames: []AlternativeName{{Name: "Thunor", Language: "Old English", Meaning: "thunder"}},
			Cognates:         []Cognate{{Term: "Perun", Language: "Slavic"}},
		},
		Tags: []string{"thunder"},
	}

	want := []Variant{
		{Name: "Thor", Origin: OriginPrimary},
		{Name: "Donar", Origin: OriginMythologyContext, Mythology: "germanic", Context: "continental"},
		{Name: "Þórr", Origin: OriginOriginal},
		{Name: "Thunor", Origin: OriginAlternative, Language: "Old English", Meaning: "thunder"},
		{Name: "Perun", Origin: OriginCognate, Language: "Slavic"},
		{Name: "thunder", Origin: OriginTag},
	}
	assert.Equal(t, want, r.Variants())
}
