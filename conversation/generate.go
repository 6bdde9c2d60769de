package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/dlemos/converso/llm"
	"github.com/dlemos/converso/retrieval"
	"github.com/dlemos/converso/session"
)

// Generator produces the answer for one utterance, conditioned on the
// persona policy, the retrieved context, and the full conversation history.
type Generator struct {
	llm     llm.Client
	persona Persona
}

func NewGenerator(client llm.Client, persona Persona) *Generator {
	return &Generator{llm: client, persona: persona}
}

// Generate returns the raw completion text. Directive-grammar compliance is
// the model's responsibility; extraction happens downstream.
func (g *Generator) Generate(ctx context.Context, segments []retrieval.Segment, history []session.Turn, utterance string) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.System(g.systemMessage(segments)))
	messages = append(messages, toMessages(history)...)
	messages = append(messages, llm.User(utterance))

	answer, err := g.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (g *Generator) systemMessage(segments []retrieval.Segment) string {
	var sb strings.Builder
	sb.WriteString(g.persona.SystemPrompt)
	sb.WriteString("\n\nContexto:\n")
	if len(segments) == 0 {
		sb.WriteString("(nenhum trecho relevante encontrado)")
		return sb.String()
	}
	sb.WriteString(buildContextBlock(segments))
	return sb.String()
}

func buildContextBlock(segments []retrieval.Segment) string {
	var sb strings.Builder
	for idx, segment := range segments {
		sb.WriteString(fmt.Sprintf("Trecho %d (%s):\n", idx+1, segment.Source))
		sb.WriteString(strings.TrimSpace(segment.Content))
		if idx < len(segments)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
