package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/dlemos/converso/llm"
	"github.com/dlemos/converso/retrieval"
	"github.com/dlemos/converso/session"
)

func TestGeneratorBuildsPersonaAndContextPrompt(t *testing.T) {
	client := &stubLLM{responses: []string{"resposta"}}
	persona, err := LoadPersona("atendimento", "")
	if err != nil {
		t.Fatalf("load persona: %v", err)
	}
	generator := NewGenerator(client, persona)

	history := []session.Turn{
		{Role: session.RoleUser, Content: "oi"},
		{Role: session.RoleAssistant, Content: "olá!"},
	}
	segments := []retrieval.Segment{
		{Source: "manual.pdf", Content: "O modelo básico custa R$ 5.999,00."},
		{Source: "faq.txt", Content: "Suporte: 0800-CAFE-DOIDO."},
	}

	if _, err := generator.Generate(context.Background(), segments, history, "quanto custa?"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(client.calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(client.calls))
	}
	messages := client.calls[0]
	if len(messages) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d messages", len(messages))
	}

	system := messages[0]
	if system.Role != llm.RoleSystem {
		t.Fatalf("first message must be the system prompt, got %q", system.Role)
	}
	if !strings.Contains(system.Content, persona.SystemPrompt) {
		t.Fatal("system message missing the persona prompt")
	}
	if !strings.Contains(system.Content, "Trecho 1 (manual.pdf):") || !strings.Contains(system.Content, "Trecho 2 (faq.txt):") {
		t.Fatalf("system message missing context block: %q", system.Content)
	}

	if messages[1].Role != llm.RoleUser || messages[2].Role != llm.RoleAssistant {
		t.Fatal("history roles not mapped in order")
	}
	last := messages[len(messages)-1]
	if last.Role != llm.RoleUser || last.Content != "quanto custa?" {
		t.Fatalf("utterance must be the final user message, got %+v", last)
	}
}

func TestGeneratorNotesEmptyContext(t *testing.T) {
	client := &stubLLM{responses: []string{"resposta"}}
	persona, _ := LoadPersona("atendimento", "")
	generator := NewGenerator(client, persona)

	if _, err := generator.Generate(context.Background(), nil, nil, "oi"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	system := client.calls[0][0].Content
	if !strings.Contains(system, "nenhum trecho relevante") {
		t.Fatalf("expected empty-context note, got %q", system)
	}
}

func TestReformulatorSendsHistoryAndUtterance(t *testing.T) {
	client := &stubLLM{responses: []string{"Qual é o preço do modelo Titanium?"}}
	reformulator := NewReformulator(client)

	history := []session.Turn{
		{Role: session.RoleUser, Content: "Quanto custa a cafeteira?"},
		{Role: session.RoleAssistant, Content: "O básico custa R$ 5.999,00."},
	}

	query, err := reformulator.Reformulate(context.Background(), history, "E o Titanium?")
	if err != nil {
		t.Fatalf("reformulate: %v", err)
	}
	if query != "Qual é o preço do modelo Titanium?" {
		t.Fatalf("unexpected query: %q", query)
	}

	messages := client.calls[0]
	if messages[0].Role != llm.RoleSystem || !strings.Contains(messages[0].Content, "NÃO responda") {
		t.Fatalf("unexpected system prompt: %+v", messages[0])
	}
	if messages[len(messages)-1].Content != "E o Titanium?" {
		t.Fatal("utterance must be the final user message")
	}
}

func TestReformulatorFallsBackToUtteranceOnBlankRewrite(t *testing.T) {
	client := &stubLLM{responses: []string{"   "}}
	reformulator := NewReformulator(client)

	history := []session.Turn{{Role: session.RoleUser, Content: "oi"}}
	query, err := reformulator.Reformulate(context.Background(), history, "E o preço?")
	if err != nil {
		t.Fatalf("reformulate: %v", err)
	}
	if query != "E o preço?" {
		t.Fatalf("expected fallback to the utterance, got %q", query)
	}
}
