package config

import (
	"testing"
	"time"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_FUSION_RRF_K", "")
	t.Setenv("RAG_MIN_RELEVANCE", "")
	t.Setenv("SEMANTIC_EMBED_CONCURRENCY", "")
	t.Setenv("PROVIDER_TIMEOUT", "")
	t.Setenv("ENTRY_STORE", "")

	cfg := Load()
	if cfg.RAGFusionRRFK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGMinRelevance != 0.3 {
		t.Fatalf("expected default min relevance 0.3, got %v", cfg.RAGMinRelevance)
	}
	if cfg.SemanticEmbedConcurrency != 4 {
		t.Fatalf("expected default embed concurrency 4, got %d", cfg.SemanticEmbedConcurrency)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Fatalf("expected default provider timeout 30s, got %s", cfg.ProviderTimeout)
	}
	if cfg.EntryStore != "postgres" {
		t.Fatalf("expected default entry store postgres, got %q", cfg.EntryStore)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RAG_FUSION_RRF_K", "75")
	t.Setenv("RAG_MIN_RELEVANCE", "0.45")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("NATS_REQUEST_TIMEOUT", "12")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")
	t.Setenv("ENTRY_STORE", "sqlite")

	cfg := Load()
	if cfg.RAGFusionRRFK != 75 {
		t.Fatalf("expected fusion rrf k 75, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGMinRelevance != 0.45 {
		t.Fatalf("expected min relevance 0.45, got %v", cfg.RAGMinRelevance)
	}
	if cfg.ProviderTimeout != 5*time.Second {
		t.Fatalf("expected provider timeout 5s, got %s", cfg.ProviderTimeout)
	}
	if cfg.NATSRequestTimeout != 12*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", cfg.NATSRequestTimeout)
	}
	if cfg.ResilienceBreakerEnable {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.EntryStore != "sqlite" {
		t.Fatalf("expected sqlite store, got %q", cfg.EntryStore)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RAG_FUSION_RRF_K", "sixty")
	t.Setenv("RAG_MIN_RELEVANCE", "high")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	cfg := Load()
	if cfg.RAGFusionRRFK != 60 {
		t.Fatalf("expected fallback rrf k, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGMinRelevance != 0.3 {
		t.Fatalf("expected fallback min relevance, got %v", cfg.RAGMinRelevance)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Fatalf("expected fallback provider timeout, got %s", cfg.ProviderTimeout)
	}
}
