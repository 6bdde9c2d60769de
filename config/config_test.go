package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.DocsDir != "documentos" {
		t.Fatalf("unexpected DocsDir: %q", cfg.DocsDir)
	}
	if cfg.RetrievalK != 4 {
		t.Fatalf("unexpected RetrievalK: %d", cfg.RetrievalK)
	}
	if cfg.ReplyMaxChars != 1500 {
		t.Fatalf("unexpected ReplyMaxChars: %d", cfg.ReplyMaxChars)
	}
	if cfg.Persona != "comercial" {
		t.Fatalf("unexpected Persona: %q", cfg.Persona)
	}
	if cfg.VectorBackend != BackendMemory || cfg.SessionBackend != BackendMemory {
		t.Fatalf("unexpected backends: %q/%q", cfg.VectorBackend, cfg.SessionBackend)
	}
}

func TestLoadHonorsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("RETRIEVAL_K", "8")
	t.Setenv("SESSION_BACKEND", BackendRedis)
	t.Setenv("LLM_PROVIDER", ProviderOllama)

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.RetrievalK != 8 {
		t.Fatalf("unexpected RetrievalK: %d", cfg.RetrievalK)
	}
	if cfg.SessionBackend != BackendRedis {
		t.Fatalf("unexpected SessionBackend: %q", cfg.SessionBackend)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Fatalf("unexpected LLM provider: %q", cfg.LLM.Provider)
	}
}

func TestLoadIgnoresInvalidIntegers(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "banana")
	t.Setenv("REPLY_MAX_CHARS", "-5")

	cfg := Load()

	if cfg.RetrievalK != 4 {
		t.Fatalf("expected default RetrievalK, got %d", cfg.RetrievalK)
	}
	if cfg.ReplyMaxChars != 1500 {
		t.Fatalf("expected default ReplyMaxChars, got %d", cfg.ReplyMaxChars)
	}
}
