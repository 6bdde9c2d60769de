package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dlemos/converso/api"
	"github.com/dlemos/converso/config"
	"github.com/dlemos/converso/conversation"
	"github.com/dlemos/converso/embeddings"
	"github.com/dlemos/converso/ingestion"
	"github.com/dlemos/converso/leads"
	"github.com/dlemos/converso/llm"
	"github.com/dlemos/converso/retrieval"
	"github.com/dlemos/converso/session"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "leads":
		leadsCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "HTTP listen address")
	docsDir := flags.String("docs", cfg.DocsDir, "path to the document corpus directory")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orchestrator, retriever, persona, err := buildPipeline(ctx, cfg, *docsDir, logger)
	if err != nil {
		logger.Fatalf("pipeline setup: %v", err)
	}

	segments := func() int { return 0 }
	if retriever != nil {
		segments = retriever.SegmentCount
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(orchestrator, persona.Name, segments, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s with persona %s", *addr, persona.Name)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server: %v", err)
	}
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	docsDir := flags.String("docs", cfg.DocsDir, "path to the document corpus directory")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Digite sua pergunta: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}
	if strings.TrimSpace(*question) == "" {
		logger.Fatal("question cannot be empty")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orchestrator, _, _, err := buildPipeline(ctx, cfg, *docsDir, logger)
	if err != nil {
		logger.Fatalf("pipeline setup: %v", err)
	}

	reply, err := orchestrator.Respond(ctx, "cli", *question)
	if err != nil {
		logger.Printf("respond: %v", err)
	}

	fmt.Println(reply.Text)
	if reply.Lead != nil {
		fmt.Printf("\nLead registrado: %s | %s | %s\n", reply.Lead.Name, reply.Lead.Contact, reply.Lead.Interest)
	}
}

func leadsCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("leads", flag.ExitOnError)
	file := flags.String("file", cfg.LeadsFile, "path to the captured leads file")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse leads flags: %v", err)
	}

	entries, err := leads.ReadAll(*file)
	if err != nil {
		logger.Fatalf("read leads: %v", err)
	}

	if len(entries) == 0 {
		fmt.Println("Nenhum lead registrado.")
		return
	}

	for _, entry := range entries {
		fmt.Printf("%s  %s  %s  %s\n", entry.Date, entry.Name, entry.Contact, entry.Interest)
	}
}

// buildPipeline wires every component for one process: corpus ingestion and
// indexing, the session store, the lead sink, and the orchestrator. A missing
// or empty corpus leaves the retriever nil and the pipeline in no-index mode.
func buildPipeline(ctx context.Context, cfg config.Config, docsDir string, logger *log.Logger) (*conversation.Orchestrator, *retrieval.Retriever, conversation.Persona, error) {
	persona, err := conversation.LoadPersona(cfg.Persona, cfg.PersonasFile)
	if err != nil {
		return nil, nil, conversation.Persona{}, fmt.Errorf("load persona: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, conversation.Persona{}, fmt.Errorf("llm setup: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, conversation.Persona{}, fmt.Errorf("embedder setup: %w", err)
	}

	retriever, err := buildRetriever(ctx, cfg, docsDir, embedder, logger)
	if err != nil {
		return nil, nil, conversation.Persona{}, err
	}

	var store session.Store
	switch cfg.SessionBackend {
	case config.BackendRedis:
		store = session.NewRedisStore(cfg.RedisAddr)
	case config.BackendMemory:
		store = session.NewMemoryStore()
	default:
		return nil, nil, conversation.Persona{}, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend)
	}

	var orchestratorRetriever conversation.Retriever
	if retriever != nil {
		orchestratorRetriever = retriever
	}

	orchestrator := conversation.NewOrchestrator(
		store,
		orchestratorRetriever,
		conversation.NewReformulator(llmClient),
		conversation.NewGenerator(llmClient, persona),
		leads.NewExtractor(persona.LeadMarker),
		leads.NewCSVSink(cfg.LeadsFile),
		cfg.ReplyMaxChars,
		logger,
	)

	return orchestrator, retriever, persona, nil
}

func buildRetriever(ctx context.Context, cfg config.Config, docsDir string, embedder embeddings.Embedder, logger *log.Logger) (*retrieval.Retriever, error) {
	ingester := ingestion.NewService(logger)
	documents, err := ingester.LoadDirectory(ctx, docsDir)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if len(documents) == 0 {
		logger.Printf("no documents found in %s, running without retrieval", docsDir)
		return nil, nil
	}

	segments := make([]retrieval.Segment, 0, len(documents))
	for _, doc := range documents {
		for idx, chunk := range ingester.Split(doc) {
			segments = append(segments, retrieval.Segment{
				ID:      uuid.New().String(),
				Source:  doc.Path,
				Index:   idx,
				Content: chunk,
			})
		}
	}

	var index retrieval.Index
	switch cfg.VectorBackend {
	case config.BackendPostgres:
		index, err = retrieval.NewPostgresIndex(ctx, cfg.PostgresDSN, cfg.Embeddings.Dimension)
		if err != nil {
			return nil, fmt.Errorf("postgres index setup: %w", err)
		}
	case config.BackendMemory:
		index, err = retrieval.NewChromemIndex(embedder)
		if err != nil {
			return nil, fmt.Errorf("memory index setup: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.VectorBackend)
	}

	retriever := retrieval.NewRetriever(embedder, index, cfg.RetrievalK, logger)
	logger.Printf("indexing %d segments from %d documents", len(segments), len(documents))
	if err := retriever.IndexSegments(ctx, segments); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	return retriever, nil
}

func printUsage() {
	fmt.Println("Usage: converso <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the webhook server (indexes the document corpus at startup)")
	fmt.Println("  chat     Ask a single question through the full pipeline")
	fmt.Println("  leads    Print the captured leads log")
}
