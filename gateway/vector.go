package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/bizpulse/bizpulse/core"
	"github.com/openai/openai-go"
	"github.com/philippgille/chromem-go"
)

// EmbeddedVectorStore keeps the review and business collections in an
// in-process chromem database. It backs local runs, seeding and tests; a
// remote deployment uses RemoteVectorStore instead.
type EmbeddedVectorStore struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	embed       chromem.EmbeddingFunc
}

// NewEmbeddedVectorStore creates both collections with the given embedding
// function. Pass chromem.NewEmbeddingFuncOpenAI(...) for real embeddings or
// HashEmbedding for deterministic offline vectors.
func NewEmbeddedVectorStore(embed chromem.EmbeddingFunc) (*EmbeddedVectorStore, error) {
	return newVectorStore(chromem.NewDB(), embed)
}

// NewPersistentVectorStore is like NewEmbeddedVectorStore but backs the
// collections with an on-disk database, so seeded data survives restarts.
func NewPersistentVectorStore(path string, embed chromem.EmbeddingFunc) (*EmbeddedVectorStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db at %s: %w", path, err)
	}
	return newVectorStore(db, embed)
}

func newVectorStore(db *chromem.DB, embed chromem.EmbeddingFunc) (*EmbeddedVectorStore, error) {
	s := &EmbeddedVectorStore{
		db:          db,
		collections: make(map[string]*chromem.Collection, 2),
		embed:       embed,
	}
	for _, name := range []string{core.CollectionReviews, core.CollectionBusinesses} {
		c, err := db.GetOrCreateCollection(name, nil, embed)
		if err != nil {
			return nil, fmt.Errorf("create collection %s: %w", name, err)
		}
		s.collections[name] = c
	}
	return s, nil
}

func (s *EmbeddedVectorStore) collection(name string) (*chromem.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, core.NewToolError("vector", core.CodeInvalidInput, fmt.Sprintf("unknown collection %q", name))
	}
	return c, nil
}

// Add ingests one document into a collection.
func (s *EmbeddedVectorStore) Add(ctx context.Context, collection, id, text string, metadata map[string]string) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	doc := chromem.Document{ID: id, Content: text, Metadata: metadata}
	if err := c.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return core.WrapToolError("vector", core.CodeServiceUnavailable, "document ingestion failed", err)
	}
	return nil
}

// Count returns the number of documents in a collection.
func (s *EmbeddedVectorStore) Count(collection string) int {
	c, err := s.collection(collection)
	if err != nil {
		return 0
	}
	return c.Count()
}

// Search implements VectorSearcher. Relevance scores are chromem cosine
// similarities in [0,1]; an empty collection yields an empty result set, not
// an error.
func (s *EmbeddedVectorStore) Search(ctx context.Context, collection, query string, k int, where map[string]string) ([]core.SearchRecord, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults above the document count.
	if count := c.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}
	results, err := c.Query(ctx, query, k, where, nil)
	if err != nil {
		return nil, core.WrapToolError("vector", core.CodeServiceUnavailable, "collection query failed", err)
	}
	records := make([]core.SearchRecord, 0, len(results))
	for _, r := range results {
		records = append(records, core.SearchRecord{
			ID:         r.ID,
			Collection: collection,
			Text:       r.Content,
			Score:      float64(r.Similarity),
			Metadata:   r.Metadata,
		})
	}
	return records, nil
}

// DefaultEmbeddingDim is the hash embedding dimensionality used when no
// learned embedding is configured.
const DefaultEmbeddingDim = 256

// DefaultEmbeddingModel is the OpenAI embedding model used when none is
// configured.
const DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small

// OpenAIEmbedding returns a chromem.EmbeddingFunc backed by the OpenAI
// embeddings API, for production collections where hash vectors are not
// good enough.
func OpenAIEmbedding(client *openai.Client, model string) chromem.EmbeddingFunc {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
			Model: openai.EmbeddingModel(model),
		})
		if err != nil {
			return nil, core.WrapToolError("vector", core.CodeServiceUnavailable, "embedding request failed", err)
		}
		if len(resp.Data) == 0 {
			return nil, core.NewToolError("vector", core.CodeMalformedResponse, "embedding response contains no data")
		}
		vec := make([]float32, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float32(v)
		}
		return vec, nil
	}
}

// HashEmbedding returns a deterministic embedding based on token hashing.
// It is no substitute for a learned embedding but gives stable, non-trivial
// cosine similarities for seeding demos and tests without network access.
func HashEmbedding(dim int) chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, dim)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			token = strings.Trim(token, ".,!?;:\"'()")
			if token == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(token))
			vec[int(h.Sum32())%dim]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}

// Review is one seedable review document.
type Review struct {
	ID         string `json:"review_id"`
	BusinessID string `json:"business_id"`
	Text       string `json:"text"`
	Stars      string `json:"stars"`
	Date       string `json:"date"`
}

// Business is one seedable business document.
type Business struct {
	ID         string `json:"business_id"`
	Name       string `json:"name"`
	Categories string `json:"categories"`
	Stars      string `json:"stars"`
	City       string `json:"city"`
}

// AddReview ingests a review into the review collection.
func (s *EmbeddedVectorStore) AddReview(ctx context.Context, r Review) error {
	return s.Add(ctx, core.CollectionReviews, r.ID, r.Text, map[string]string{
		"business_id": r.BusinessID,
		"stars":       r.Stars,
		"date":        r.Date,
	})
}

// AddBusiness ingests a business into the business collection. The indexed
// text combines name, categories and city so semantic lookups match any of
// them.
func (s *EmbeddedVectorStore) AddBusiness(ctx context.Context, b Business) error {
	text := strings.TrimSpace(strings.Join([]string{b.Name, b.Categories, b.City}, " "))
	return s.Add(ctx, core.CollectionBusinesses, b.ID, text, map[string]string{
		"name":       b.Name,
		"categories": b.Categories,
		"stars":      b.Stars,
		"city":       b.City,
	})
}

// seedLine is the JSONL envelope consumed by SeedFromReader.
type seedLine struct {
	Kind     string    `json:"kind"` // "review" or "business"
	Review   *Review   `json:"review,omitempty"`
	Business *Business `json:"business,omitempty"`
}

// SeedFromReader ingests JSON lines of reviews and businesses. It returns
// the number of documents added and stops at the first malformed line.
func (s *EmbeddedVectorStore) SeedFromReader(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	added := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry seedLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return added, core.WrapToolError("vector", core.CodeMalformedResponse, "malformed seed line", err)
		}
		switch {
		case entry.Kind == "review" && entry.Review != nil:
			if err := s.AddReview(ctx, *entry.Review); err != nil {
				return added, err
			}
		case entry.Kind == "business" && entry.Business != nil:
			if err := s.AddBusiness(ctx, *entry.Business); err != nil {
				return added, err
			}
		default:
			return added, core.NewToolError("vector", core.CodeMalformedResponse,
				fmt.Sprintf("seed line kind %q has no matching payload", entry.Kind))
		}
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, core.WrapToolError("vector", core.CodeServiceUnavailable, "seed stream read failed", err)
	}
	return added, nil
}
