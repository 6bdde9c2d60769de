package retrieval

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/dlemos/converso/embeddings"
)

// ChromemIndex is the default in-memory index backend, built once at startup
// and queried with precomputed embeddings.
type ChromemIndex struct {
	collection *chromem.Collection
}

func NewChromemIndex(embedder embeddings.Embedder) (*ChromemIndex, error) {
	db := chromem.NewDB()

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("embedder returned no vectors")
		}
		return vectors[0], nil
	}

	collection, err := db.CreateCollection("segments", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}

	return &ChromemIndex{collection: collection}, nil
}

func (i *ChromemIndex) Add(ctx context.Context, segments []Segment, vectors [][]float32) error {
	if len(segments) != len(vectors) {
		return fmt.Errorf("segment/vector count mismatch: %d vs %d", len(segments), len(vectors))
	}
	if len(segments) == 0 {
		return nil
	}

	documents := make([]chromem.Document, len(segments))
	for idx, segment := range segments {
		documents[idx] = chromem.Document{
			ID:        segment.ID,
			Embedding: vectors[idx],
			Content:   segment.Content,
			Metadata: map[string]string{
				"source": segment.Source,
				"index":  strconv.Itoa(segment.Index),
			},
		}
	}

	if err := i.collection.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents to chromem: %w", err)
	}

	return nil
}

func (i *ChromemIndex) Search(ctx context.Context, vector []float32, k int) ([]Segment, error) {
	// chromem rejects queries asking for more results than stored documents.
	if count := i.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query chromem collection: %w", err)
	}

	segments := make([]Segment, len(results))
	for idx, result := range results {
		index, _ := strconv.Atoi(result.Metadata["index"])
		segments[idx] = Segment{
			ID:      result.ID,
			Source:  result.Metadata["source"],
			Index:   index,
			Content: result.Content,
			Score:   float64(result.Similarity),
		}
	}

	return segments, nil
}

func (i *ChromemIndex) Count() int {
	return i.collection.Count()
}

var _ Index = (*ChromemIndex)(nil)
