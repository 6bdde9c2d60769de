// Package embeddings converts text into fixed-length vectors for similarity
// search, through OpenAI or a local Ollama server.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dlemos/converso/config"
)

// Embedder maps each input text to one vector, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the configured provider. When EMBEDDINGS_DIMENSION is
// set the provider is wrapped so every vector is checked against it; the
// vector index is created with that dimension and silently accepting another
// would corrupt search results.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	var provider Embedder
	switch cfg.Embeddings.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		provider = newOpenAIEmbedder(cfg.Embeddings.Model, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	case config.ProviderOllama:
		provider = newOllamaEmbedder(cfg.Embeddings.Model, cfg.OllamaHost)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embeddings.Provider)
	}

	if cfg.Embeddings.Dimension > 0 {
		provider = &dimensionCheck{next: provider, want: cfg.Embeddings.Dimension}
	}
	return provider, nil
}

type dimensionCheck struct {
	next Embedder
	want int
}

func (d *dimensionCheck) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := d.next.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, vec := range vectors {
		if len(vec) != d.want {
			return nil, fmt.Errorf("embedding %d has dimension %d, index expects %d", i, len(vec), d.want)
		}
	}
	return vectors, nil
}

type openAIEmbedder struct {
	api   *openai.Client
	model string
}

func newOpenAIEmbedder(model, apiKey, baseURL string) *openAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIEmbedder{api: openai.NewClientWithConfig(cfg), model: model}
}

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		vectors[i] = datum.Embedding
	}
	return vectors, nil
}

const defaultOllamaHost = "http://localhost:11434"

type ollamaEmbedder struct {
	host  string
	model string
	http  *http.Client
}

func newOllamaEmbedder(model, host string) *ollamaEmbedder {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = defaultOllamaHost
	}
	return &ollamaEmbedder{
		host:  host,
		model: model,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed issues one request per text; the Ollama embeddings endpoint has no
// batch form.
func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (e *ollamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ollama embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return nil, fmt.Errorf("ollama embeddings API: %s", string(data))
		}
		return nil, fmt.Errorf("ollama embeddings API returned status %s", resp.Status)
	}

	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama embeddings response: %w", err)
	}

	vec := make([]float32, len(out.Embedding))
	for i, value := range out.Embedding {
		vec[i] = float32(value)
	}
	return vec, nil
}
