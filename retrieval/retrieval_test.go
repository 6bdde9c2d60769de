package retrieval

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
)

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		results[i] = vec
	}
	return results, nil
}

func testSegments() []Segment {
	return []Segment{
		{ID: "seg-1", Source: "manual.pdf", Index: 0, Content: "preço do modelo básico"},
		{ID: "seg-2", Source: "manual.pdf", Index: 1, Content: "instruções de segurança"},
		{ID: "seg-3", Source: "faq.txt", Index: 0, Content: "contato do suporte"},
	}
}

func testVectors() [][]float32 {
	return [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func newTestIndex(t *testing.T, embedder *stubEmbedder) *ChromemIndex {
	t.Helper()
	index, err := NewChromemIndex(embedder)
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := index.Add(context.Background(), testSegments(), testVectors()); err != nil {
		t.Fatalf("add segments: %v", err)
	}
	return index
}

func TestChromemIndexSearchRanksBySimilarity(t *testing.T) {
	index := newTestIndex(t, &stubEmbedder{})

	results, err := index.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "seg-1" {
		t.Fatalf("expected seg-1 first, got %s", results[0].ID)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not ranked: %f < %f", results[0].Score, results[1].Score)
	}
	if results[0].Source != "manual.pdf" || results[0].Index != 0 {
		t.Fatalf("segment metadata lost: %+v", results[0])
	}
}

func TestChromemIndexClampsKToStoredSegments(t *testing.T) {
	index := newTestIndex(t, &stubEmbedder{})

	results, err := index.Search(context.Background(), []float32{0, 1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected all 3 segments, got %d", len(results))
	}
}

func TestChromemIndexCount(t *testing.T) {
	index := newTestIndex(t, &stubEmbedder{})
	if index.Count() != 3 {
		t.Fatalf("expected 3 segments, got %d", index.Count())
	}
}

func TestChromemIndexRejectsMismatchedVectors(t *testing.T) {
	index, err := NewChromemIndex(&stubEmbedder{})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := index.Add(context.Background(), testSegments(), testVectors()[:2]); err == nil {
		t.Fatal("expected error for segment/vector count mismatch")
	}
}

func TestRetrieverRetrievesTopK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"qual o preço?": {1, 0, 0},
	}}
	index := newTestIndex(t, embedder)
	retriever := NewRetriever(embedder, index, 2, log.New(io.Discard, "", 0))

	results, err := retriever.Retrieve(context.Background(), "qual o preço?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "preço do modelo básico" {
		t.Fatalf("unexpected top result: %q", results[0].Content)
	}
}

func TestRetrieverLogsBestScore(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"qual o preço?": {1, 0, 0},
	}}
	index := newTestIndex(t, embedder)
	var buf bytes.Buffer
	retriever := NewRetriever(embedder, index, 2, log.New(&buf, "", 0))

	if _, err := retriever.Retrieve(context.Background(), "qual o preço?"); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	logged := buf.String()
	if !strings.Contains(logged, "manual.pdf#0") || !strings.Contains(logged, "score") {
		t.Fatalf("expected the best match and its score logged, got %q", logged)
	}
}

func TestRetrieverRejectsEmptyQuery(t *testing.T) {
	index := newTestIndex(t, &stubEmbedder{})
	retriever := NewRetriever(&stubEmbedder{}, index, 2, log.New(io.Discard, "", 0))

	if _, err := retriever.Retrieve(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRetrieverSegmentCount(t *testing.T) {
	index := newTestIndex(t, &stubEmbedder{})
	retriever := NewRetriever(&stubEmbedder{}, index, 0, log.New(io.Discard, "", 0))

	if retriever.SegmentCount() != 3 {
		t.Fatalf("expected 3 segments, got %d", retriever.SegmentCount())
	}
}
