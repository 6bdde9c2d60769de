// Package llm provides the chat model behind query reformulation and answer
// generation. Two providers are supported: the OpenAI API (or any compatible
// endpoint via OPENAI_BASE_URL) and a local Ollama server.
package llm

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

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat prompt. The field tags follow the wire
// format Ollama expects, so prompts marshal directly.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Client is the completion oracle shared by query reformulation and answer
// generation. Implementations must be safe for concurrent use: the webhook
// handles callers in parallel.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

func NewClient(cfg config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return newOpenAIChat(cfg.LLM.Model, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case config.ProviderOllama:
		return newOllamaChat(cfg.LLM.Model, cfg.OllamaHost), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

type openAIChat struct {
	api   *openai.Client
	model string
}

func newOpenAIChat(model, apiKey, baseURL string) *openAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIChat{api: openai.NewClientWithConfig(cfg), model: model}
}

func (c *openAIChat) Generate(ctx context.Context, messages []Message) (string, error) {
	prompt := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		prompt[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

const defaultOllamaHost = "http://localhost:11434"

type ollamaChat struct {
	host  string
	model string
	http  *http.Client
}

func newOllamaChat(model, host string) *ollamaChat {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = defaultOllamaHost
	}
	return &ollamaChat{
		host:  host,
		model: model,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *ollamaChat) Generate(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
	}{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal ollama chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create ollama chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return "", fmt.Errorf("ollama chat API: %s", string(data))
		}
		return "", fmt.Errorf("ollama chat API returned status %s", resp.Status)
	}

	var out struct {
		Message Message `json:"message"`
		Error   string  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama chat response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama chat error: %s", out.Error)
	}

	return out.Message.Content, nil
}
