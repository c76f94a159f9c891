package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ersonp/mythos/internal/domain/entities"
	"github.com/ersonp/mythos/internal/domain/ports"
)

// Search defaults.
const (
	DefaultSearchLimit = 10
	embedBatchSize     = 64
)

// ErrVectorSearchDisabled is returned by SyncVectors without an embedder or vector store.
var ErrVectorSearchDisabled = errors.New("vector search is not configured")

// Hit sources.
const (
	HitSourceName   = "name"
	HitSourceVector = "vector"
)

// SearchOptions controls SearchService.Search.
type SearchOptions struct {
	Limit                 int
	Mythology             string
	EntityType            string
	MaxAlternates         int
	IncludePartialMatches bool
}

// SearchHit is one entity returned by a broad search.
type SearchHit struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Mythology string  `json:"mythology"`
	Relevance int     `json:"relevance,omitempty"`
	Score     float32 `json:"score,omitempty"`
	Source    string  `json:"source"`
}

// SearchResult contains the expanded terms and the merged hits.
type SearchResult struct {
	Query string      `json:"query"`
	Terms []string    `json:"terms"`
	Hits  []SearchHit `json:"hits"`
}

// SearchService widens a query with known aliases and combines name-index
// matches with a semantic search over entity vectors. Without an embedder or
// vector store it returns name matches only.
type SearchService struct {
	lookup   NameLookup
	embedder ports.Embedder
	vectorDB ports.VectorDB
	logger   *slog.Logger
}

// NewSearchService creates a search service. embedder and vectorDB may be nil.
func NewSearchService(lookup NameLookup, embedder ports.Embedder, vectorDB ports.VectorDB, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		lookup:   lookup,
		embedder: embedder,
		vectorDB: vectorDB,
		logger:   logger,
	}
}

// Search runs the name lookup, then the vector search on the expanded
// terms. Name matches come first; vector hits fill the remaining slots.
func (s *SearchService) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result := &SearchResult{Query: query, Terms: []string{}, Hits: []SearchHit{}}
	if entities.NormalizeName(query) == "" {
		return result, nil
	}
	result.Terms = s.lookup.ExpandSearchTerms(query, ExpandOptions{
		MaxAlternates:         opts.MaxAlternates,
		IncludePartialMatches: opts.IncludePartialMatches,
	})

	seen := make(map[string]struct{})
	matches := s.lookup.FindEntitiesByName(query, FindOptions{
		Mythology:  opts.Mythology,
		EntityType: opts.EntityType,
		Limit:      limit,
	})
	for _, m := range matches {
		seen[m.ID] = struct{}{}
		result.Hits = append(result.Hits, SearchHit{
			ID:        m.ID,
			Name:      m.PrimaryName,
			Type:      m.Type,
			Mythology: m.Mythology,
			Relevance: m.Relevance,
			Source:    HitSourceName,
		})
	}

	if s.embedder == nil || s.vectorDB == nil || len(result.Hits) >= limit {
		return result, nil
	}

	embedding, err := s.embedder.Embed(ctx, strings.Join(result.Terms, " "))
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	vectorHits, err := s.vectorDB.Search(ctx, embedding, ports.VectorFilter{
		Mythology: opts.Mythology,
		Type:      opts.EntityType,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entity vectors: %w", err)
	}

	for _, h := range vectorHits {
		if len(result.Hits) >= limit {
			break
		}
		if _, dup := seen[h.EntityID]; dup {
			continue
		}
		seen[h.EntityID] = struct{}{}
		result.Hits = append(result.Hits, SearchHit{
			ID:        h.EntityID,
			Name:      h.Name,
			Type:      h.Type,
			Mythology: h.Mythology,
			Score:     h.Score,
			Source:    HitSourceVector,
		})
	}

	s.logger.Debug("search_complete",
		slog.String("query", query),
		slog.Int("terms", len(result.Terms)),
		slog.Int("name_hits", len(matches)),
		slog.Int("hits", len(result.Hits)))

	return result, nil
}

// SyncVectors embeds the names of each valid record and upserts them into
// the vector store. It returns the number of vectors written.
func (s *SearchService) SyncVectors(ctx context.Context, records []entities.EntityRecord) (int, error) {
	if s.embedder == nil || s.vectorDB == nil {
		return 0, ErrVectorSearchDisabled
	}

	valid := make([]*entities.EntityRecord, 0, len(records))
	for i := range records {
		if records[i].HasRequired() {
			valid = append(valid, &records[i])
		}
	}

	written := 0
	for start := 0; start < len(valid); start += embedBatchSize {
		end := min(start+embedBatchSize, len(valid))
		batch := valid[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = EntityText(rec)
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("generating embeddings: %w", err)
		}
		if len(embeddings) != len(batch) {
			return written, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(batch))
		}

		vectors := make([]entities.EntityVector, len(batch))
		for i, rec := range batch {
			vectors[i] = entities.EntityVector{
				EntityID:    rec.ID,
				Name:        rec.Name,
				Type:        rec.Type,
				Mythology:   rec.PrimaryMythology(),
				Mythologies: rec.Mythologies,
				Embedding:   embeddings[i],
			}
		}

		if err := s.vectorDB.SaveBatch(ctx, vectors); err != nil {
			return written, fmt.Errorf("saving entity vectors: %w", err)
		}
		written += len(batch)
	}

	return written, nil
}

// EntityText is the text embedded for a record: its distinct names, then its
// mythologies.
func EntityText(rec *entities.EntityRecord) string {
	var b strings.Builder
	seen := make(map[string]struct{})
	write := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}

	for _, v := range rec.Variants() {
		write(v.Name)
	}
	write(rec.Mythology)
	for _, m := range rec.Mythologies {
		write(m)
	}
	return b.String()
}
