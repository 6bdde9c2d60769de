package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/dlemos/converso/llm"
	"github.com/dlemos/converso/session"
)

const reformulatePrompt = "Dado um histórico de conversa e a última pergunta do usuário, " +
	"que pode depender desse histórico, reformule a pergunta para que ela possa ser " +
	"entendida sozinha. NÃO responda a pergunta: apenas reformule-a se necessário. " +
	"Caso contrário, retorne-a exatamente como está."

// Reformulator rewrites a follow-up utterance into a standalone retrieval
// query using the conversation history. It performs no retrieval and has no
// side effects.
type Reformulator struct {
	llm llm.Client
}

func NewReformulator(client llm.Client) *Reformulator {
	return &Reformulator{llm: client}
}

// Reformulate returns the utterance unchanged when there is no history to
// resolve references against; otherwise it asks the model for a standalone
// rewrite. The no-answer rule is a prompt-level contract only.
func (r *Reformulator) Reformulate(ctx context.Context, history []session.Turn, utterance string) (string, error) {
	if len(history) == 0 {
		return utterance, nil
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.System(reformulatePrompt))
	messages = append(messages, toMessages(history)...)
	messages = append(messages, llm.User(utterance))

	rewritten, err := r.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("reformulate question: %w", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return utterance, nil
	}
	return rewritten, nil
}

func toMessages(history []session.Turn) []llm.Message {
	messages := make([]llm.Message, len(history))
	for i, turn := range history {
		if turn.Role == session.RoleAssistant {
			messages[i] = llm.Assistant(turn.Content)
		} else {
			messages[i] = llm.User(turn.Content)
		}
	}
	return messages
}
