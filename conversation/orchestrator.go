// Package conversation composes the full request/response cycle: history
// lookup, query reformulation, retrieval, answer generation, lead extraction
// and persistence, and history update.
package conversation

import (
	"context"
	"log"
	"time"

	"github.com/dlemos/converso/leads"
	"github.com/dlemos/converso/retrieval"
	"github.com/dlemos/converso/session"
)

// Fixed user-facing replies. Upstream failures never leak raw error text.
const (
	NoDocumentsReply = "Erro: Sem documentos."
	FailureReply     = "Erro no processamento."
)

// Retriever is the slice of the retrieval service the orchestrator needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retrieval.Segment, error)
	SegmentCount() int
}

// Reply is the outcome of one orchestration cycle. Text is always safe to
// show the caller, including on failure.
type Reply struct {
	Text string
	Lead *leads.Lead
}

type Orchestrator struct {
	store        session.Store
	retriever    Retriever
	reformulator *Reformulator
	generator    *Generator
	extractor    *leads.Extractor
	sink         leads.Sink
	maxChars     int
	logger       *log.Logger
	now          func() time.Time
}

func NewOrchestrator(
	store session.Store,
	retriever Retriever,
	reformulator *Reformulator,
	generator *Generator,
	extractor *leads.Extractor,
	sink leads.Sink,
	maxChars int,
	logger *log.Logger,
) *Orchestrator {
	if maxChars <= 0 {
		maxChars = 1500
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Orchestrator{
		store:        store,
		retriever:    retriever,
		reformulator: reformulator,
		generator:    generator,
		extractor:    extractor,
		sink:         sink,
		maxChars:     maxChars,
		logger:       logger,
		now:          time.Now,
	}
}

// Respond runs one full cycle for an inbound message. The returned error is
// for logging only: Reply.Text already carries the fixed user-safe message
// for every failure mode. On any upstream failure the session history is
// left untouched, so a retry re-derives the same context.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, utterance string) (Reply, error) {
	if o.retriever == nil || o.retriever.SegmentCount() == 0 {
		return Reply{Text: NoDocumentsReply}, nil
	}

	history, err := o.store.History(ctx, sessionID)
	if err != nil {
		return Reply{Text: FailureReply}, err
	}

	query, err := o.reformulator.Reformulate(ctx, history, utterance)
	if err != nil {
		return Reply{Text: FailureReply}, err
	}

	segments, err := o.retriever.Retrieve(ctx, query)
	if err != nil {
		return Reply{Text: FailureReply}, err
	}

	answer, err := o.generator.Generate(ctx, segments, history, utterance)
	if err != nil {
		return Reply{Text: FailureReply}, err
	}

	cleaned, lead := o.extractor.Extract(answer)

	// Lead capture is best-effort: the conversation is the primary contract.
	if lead != nil && o.sink != nil {
		if sinkErr := o.sink.Record(*lead, o.now()); sinkErr != nil {
			o.logger.Printf("record lead for %s: %v", sessionID, sinkErr)
		}
	}

	// The directive never enters conversational memory, only the cleaned
	// answer does.
	userTurn := session.Turn{Role: session.RoleUser, Content: utterance}
	assistantTurn := session.Turn{Role: session.RoleAssistant, Content: cleaned}
	if err := o.store.AppendExchange(ctx, sessionID, userTurn, assistantTurn); err != nil {
		return Reply{Text: FailureReply}, err
	}

	return Reply{Text: truncate(cleaned, o.maxChars), Lead: lead}, nil
}

func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
