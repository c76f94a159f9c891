package services

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ersonp/mythos/internal/domain/entities"
)

// Lookup defaults.
const (
	DefaultFindLimit     = 10
	DefaultMaxAlternates = 5

	// expandTopMatches is how many ranked matches ExpandSearchTerms draws aliases from.
	expandTopMatches = 3
)

// Relevance weights. Primary-name variants also earn primaryBonus on any match.
const (
	scoreExactPrimary    = 100
	scoreExact           = 80
	scorePrefixPrimary   = 60
	scorePrefix          = 40
	scoreContainsPrimary = 30
	scoreContains        = 20
	primaryBonus         = 10
)

// FindOptions controls FindEntitiesByName.
type FindOptions struct {
	ExactMatch bool   // Match the whole normalized name instead of a substring
	Mythology  string // Keep only entities associated with this mythology
	EntityType string // Keep only entities of this type
	Limit      int    // Maximum results (default DefaultFindLimit)

	// AllowDuplicates returns one result per matching bucket, so an entity
	// matched under several names appears several times. By default results
	// are merged per entity, keeping the best relevance.
	AllowDuplicates bool
}

// ExpandOptions controls ExpandSearchTerms.
type ExpandOptions struct {
	MaxAlternates         int  // Maximum aliases added to the term (default DefaultMaxAlternates)
	IncludePartialMatches bool // Draw aliases from substring matches, not only exact ones
}

// EntityMatch is one ranked result of a name lookup.
type EntityMatch struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	PrimaryName     string             `json:"primaryName"`
	Mythology       string             `json:"mythology"`
	Mythologies     []string           `json:"mythologies"`
	MatchedVariants []entities.Variant `json:"matchedVariants"`
	Relevance       int                `json:"relevance"`
}

// nameEntry is one entity's slot in a bucket.
type nameEntry struct {
	entity   *entities.EntityRef
	variants []entities.Variant
}

// scoredName is a normalized variant name kept for relevance scoring.
type scoredName struct {
	key     string
	primary bool
}

// bucket holds every entity indexed under one normalized name.
type bucket struct {
	key     string
	entries []*nameEntry
	byID    map[string]int
}

// NameVariantIndex maps normalized names to the entities that carry them and
// ranks lookups by match quality. It is rebuilt from a data source at startup
// and is not safe for concurrent use; see SharedIndex.
type NameVariantIndex struct {
	logger *slog.Logger

	names map[string]*bucket
	keys  []string // bucket keys in insertion order
	refs  map[string]*entities.EntityRef
	all   map[string][]scoredName // every variant of an entity, for scoring

	initialized  bool
	indexedCount int
}

// NewNameVariantIndex creates an empty index. A nil logger discards output.
func NewNameVariantIndex(logger *slog.Logger) *NameVariantIndex {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NameVariantIndex{
		logger: logger,
		names:  make(map[string]*bucket),
		refs:   make(map[string]*entities.EntityRef),
		all:    make(map[string][]scoredName),
	}
}

// IndexEntity adds every name of the record to the index. Records without an
// ID or name are skipped with a warning.
func (x *NameVariantIndex) IndexEntity(record *entities.EntityRecord) {
	x.indexEntity(record)
}

// indexEntity returns the number of names added and whether the record was accepted.
func (x *NameVariantIndex) indexEntity(record *entities.EntityRecord) (int, bool) {
	if record == nil || !record.HasRequired() {
		var id, name string
		if record != nil {
			id, name = record.ID, record.Name
		}
		x.logger.Warn("skipping entity without id or name",
			slog.String("id", id),
			slog.String("name", name))
		return 0, false
	}

	for _, field := range record.Malformed {
		x.logger.Warn("skipping malformed field",
			slog.String("id", record.ID),
			slog.String("field", field))
	}

	ref, ok := x.refs[record.ID]
	if !ok {
		ref = &entities.EntityRef{ID: record.ID}
		x.refs[record.ID] = ref
	}
	ref.Type = record.Type
	ref.PrimaryName = record.Name
	ref.Mythology = record.PrimaryMythology()
	ref.Mythologies = append(make([]string, 0, len(record.Mythologies)), record.Mythologies...)

	added := 0
	for _, v := range record.Variants() {
		if x.addVariant(ref, v) {
			added++
		}
	}
	return added, true
}

// addVariant files v under its normalized name. Blank names are ignored.
func (x *NameVariantIndex) addVariant(ref *entities.EntityRef, v entities.Variant) bool {
	key := entities.NormalizeName(v.Name)
	if key == "" {
		return false
	}

	b, ok := x.names[key]
	if !ok {
		b = &bucket{key: key, byID: make(map[string]int)}
		x.names[key] = b
		x.keys = append(x.keys, key)
	}

	x.all[ref.ID] = append(x.all[ref.ID], scoredName{key: key, primary: v.IsPrimary()})

	if i, ok := b.byID[ref.ID]; ok {
		b.entries[i].variants = append(b.entries[i].variants, v)
		return true
	}

	b.byID[ref.ID] = len(b.entries)
	b.entries = append(b.entries, &nameEntry{entity: ref, variants: []entities.Variant{v}})
	return true
}

// LoadFromArray indexes every record and marks the index initialized.
func (x *NameVariantIndex) LoadFromArray(records []entities.EntityRecord) *entities.LoadStats {
	stats := newLoadStats()
	x.ingest(records, stats)
	x.markLoaded(stats)
	return stats
}

// ingest indexes records into stats without touching the lifecycle flags.
func (x *NameVariantIndex) ingest(records []entities.EntityRecord, stats *entities.LoadStats) {
	for i := range records {
		added, ok := x.indexEntity(&records[i])
		if !ok {
			stats.Skipped++
			continue
		}
		stats.TotalEntities++
		stats.TotalNames += added

		typ := records[i].Type
		if typ == "" {
			typ = "unknown"
		}
		stats.ByType[typ]++
	}
}

func (x *NameVariantIndex) markLoaded(stats *entities.LoadStats) {
	x.initialized = true
	x.indexedCount = stats.TotalEntities
}

// FindEntitiesByName returns entities whose names contain (or, with
// ExactMatch, equal) the normalized query, ranked by relevance.
//
// Candidates are taken in bucket insertion order, filtered, and cut to
// Limit before ranking, so Limit bounds the candidate set rather than
// selecting the top Limit of every match.
func (x *NameVariantIndex) FindEntitiesByName(query string, opts FindOptions) []EntityMatch {
	if query == "" {
		return []EntityMatch{}
	}
	q := entities.NormalizeName(query)
	if q == "" {
		return []EntityMatch{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFindLimit
	}

	results := make([]EntityMatch, 0, limit)
	seen := make(map[string]int)

	visit := func(b *bucket) bool {
		for _, e := range b.entries {
			ref := e.entity
			if opts.Mythology != "" && !ref.HasMythology(opts.Mythology) {
				continue
			}
			if opts.EntityType != "" && ref.Type != opts.EntityType {
				continue
			}

			rel := relevance(q, x.all[ref.ID])
			if !opts.AllowDuplicates {
				if i, ok := seen[ref.ID]; ok {
					r := &results[i]
					r.MatchedVariants = append(r.MatchedVariants, e.variants...)
					r.Relevance = max(r.Relevance, rel)
					continue
				}
			}
			if len(results) == limit {
				if opts.AllowDuplicates {
					return false
				}
				// Later buckets may still merge into an entity already kept.
				continue
			}

			seen[ref.ID] = len(results)
			results = append(results, newEntityMatch(ref, e.variants, rel))
		}
		return true
	}

	if opts.ExactMatch {
		if b, ok := x.names[q]; ok {
			visit(b)
		}
	} else {
		for _, key := range x.keys {
			if !strings.Contains(key, q) {
				continue
			}
			if !visit(x.names[key]) {
				break
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}

func newEntityMatch(ref *entities.EntityRef, variants []entities.Variant, rel int) EntityMatch {
	return EntityMatch{
		ID:              ref.ID,
		Type:            ref.Type,
		PrimaryName:     ref.PrimaryName,
		Mythology:       ref.Mythology,
		Mythologies:     append([]string{}, ref.Mythologies...),
		MatchedVariants: append([]entities.Variant(nil), variants...),
		Relevance:       rel,
	}
}

// relevance scores an entity against the normalized query by summing over
// every name the entity was indexed under, not only the names in the bucket
// that produced the candidate.
func relevance(q string, names []scoredName) int {
	score := 0
	for _, n := range names {
		var s int
		switch {
		case n.key == q:
			s = pick(n, scoreExactPrimary, scoreExact)
		case strings.HasPrefix(n.key, q):
			s = pick(n, scorePrefixPrimary, scorePrefix)
		case strings.Contains(n.key, q):
			s = pick(n, scoreContainsPrimary, scoreContains)
		default:
			continue
		}
		if n.primary {
			s += primaryBonus
		}
		score += s
	}
	return score
}

func pick(n scoredName, primary, other int) int {
	if n.primary {
		return primary
	}
	return other
}

// GetAlternateNames returns every distinct name indexed for the entity, in
// the order the names were first indexed. Unknown IDs yield an empty slice.
func (x *NameVariantIndex) GetAlternateNames(entityID string) []string {
	names := []string{}
	if _, ok := x.refs[entityID]; !ok {
		return names
	}

	seen := make(map[string]struct{})
	for _, key := range x.keys {
		b := x.names[key]
		i, ok := b.byID[entityID]
		if !ok {
			continue
		}
		for _, v := range b.entries[i].variants {
			if _, dup := seen[v.Name]; dup {
				continue
			}
			seen[v.Name] = struct{}{}
			names = append(names, v.Name)
		}
	}
	return names
}

// ExpandSearchTerms returns term followed by up to MaxAlternates aliases of
// its top matches, without repeats. It is meant to widen a downstream search.
func (x *NameVariantIndex) ExpandSearchTerms(term string, opts ExpandOptions) []string {
	if term == "" {
		return []string{}
	}

	maxAlternates := opts.MaxAlternates
	if maxAlternates <= 0 {
		maxAlternates = DefaultMaxAlternates
	}

	terms := []string{term}
	seen := map[string]struct{}{term: {}}

	matches := x.FindEntitiesByName(term, FindOptions{ExactMatch: !opts.IncludePartialMatches})
	if len(matches) > expandTopMatches {
		matches = matches[:expandTopMatches]
	}

	for _, m := range matches {
		for _, alt := range x.GetAlternateNames(m.ID) {
			if len(terms) > maxAlternates {
				return terms
			}
			if _, dup := seen[alt]; dup {
				continue
			}
			seen[alt] = struct{}{}
			terms = append(terms, alt)
		}
	}
	return terms
}

// Entity returns a copy of the indexed reference for id.
func (x *NameVariantIndex) Entity(id string) (entities.EntityRef, bool) {
	ref, ok := x.refs[id]
	if !ok {
		return entities.EntityRef{}, false
	}
	out := *ref
	out.Mythologies = append([]string{}, ref.Mythologies...)
	return out, true
}

// Stats reports the index size. It has no side effects.
func (x *NameVariantIndex) Stats() entities.IndexStats {
	stats := entities.IndexStats{
		Initialized:       x.initialized,
		TotalEntities:     len(x.refs),
		TotalNameVariants: len(x.names),
		IndexedCount:      x.indexedCount,
	}
	if stats.TotalEntities > 0 {
		avg := float64(stats.TotalNameVariants) / float64(stats.TotalEntities)
		stats.AverageNamesPerEntity = math.Round(avg*100) / 100
	}
	return stats
}

// Clear empties the index and resets its counters.
func (x *NameVariantIndex) Clear() {
	x.names = make(map[string]*bucket)
	x.keys = nil
	x.refs = make(map[string]*entities.EntityRef)
	x.all = make(map[string][]scoredName)
	x.initialized = false
	x.indexedCount = 0
}
