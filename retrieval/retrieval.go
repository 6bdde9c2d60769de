// Package retrieval embeds queries and searches a prebuilt vector index for
// the document segments most similar to them.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dlemos/converso/embeddings"
)

const defaultTopK = 4

// Segment is one indexed chunk of a source document.
type Segment struct {
	ID      string
	Source  string
	Index   int
	Content string
	Score   float64
}

// Index is a k-nearest-neighbor search structure over segment vectors. The
// index is written once at startup and read-only afterwards.
type Index interface {
	Add(ctx context.Context, segments []Segment, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]Segment, error)
	Count() int
}

type Retriever struct {
	embedder embeddings.Embedder
	index    Index
	topK     int
	logger   *log.Logger
}

func NewRetriever(embedder embeddings.Embedder, index Index, topK int, logger *log.Logger) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		logger:   logger,
	}
}

// IndexSegments embeds the given segments and loads them into the index.
func (r *Retriever) IndexSegments(ctx context.Context, segments []Segment) error {
	if len(segments) == 0 {
		return nil
	}

	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Content
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed segments: %w", err)
	}
	if len(vectors) != len(segments) {
		return fmt.Errorf("embedding count mismatch: have %d segments, %d vectors", len(segments), len(vectors))
	}

	if err := r.index.Add(ctx, segments, vectors); err != nil {
		return fmt.Errorf("index segments: %w", err)
	}

	return nil
}

// Retrieve returns the top-k segments ranked by similarity to the query.
// There is no relevance floor: top-k is returned even when similarity is poor.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Segment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	results, err := r.index.Search(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if len(results) > 0 {
		best := results[0]
		r.logger.Printf("retrieved %d segments, best %s#%d (score %.3f)", len(results), best.Source, best.Index, best.Score)
	}

	return results, nil
}

// SegmentCount reports how many segments the underlying index holds.
func (r *Retriever) SegmentCount() int {
	return r.index.Count()
}
