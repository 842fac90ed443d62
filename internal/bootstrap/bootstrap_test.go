package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/journal-assistant/internal/config"
	"github.com/kirillkom/journal-assistant/internal/core/domain"
)

func offlineConfig() config.Config {
	return config.Config{
		EntryStore:          "sqlite",
		SQLitePath:          ":memory:",
		EmbeddingProvider:   "synthetic",
		SyntheticDimensions: 64,
		OllamaURL:           "http://127.0.0.1:1",
	}
}

func TestNewWiresOfflineApp(t *testing.T) {
	reg := prometheus.NewRegistry()
	app, err := New(context.Background(), offlineConfig(), Options{Service: "test", Registerer: reg})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if app.Bus != nil {
		t.Fatalf("expected no bus without NATS_URL")
	}
	if len(app.Probes) != 2 || app.Probes[0].Name != "entry_store" || !app.Probes[0].Required {
		t.Fatalf("unexpected probes: %+v", app.Probes)
	}
	if err := app.Probes[0].Check(context.Background()); err != nil {
		t.Fatalf("entry store probe: %v", err)
	}

	resp, err := app.QueryUC.Answer(context.Background(), domain.RagRequest{Question: "How was work?"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.ModelUsed != domain.FallbackModel || resp.FallbackReason != "no_context" {
		t.Fatalf("expected no-context fallback, got %+v", resp)
	}

	results, err := app.SearchUC.Search(context.Background(), domain.SearchRequest{Query: "work"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty journal, got %d results", len(results))
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	cases := map[string]func(*config.Config){
		"entry store":        func(c *config.Config) { c.EntryStore = "mongo" },
		"embedding provider": func(c *config.Config) { c.EmbeddingProvider = "cohere" },
		"openai without key": func(c *config.Config) { c.EmbeddingProvider = "openai" },
		"default provider":   func(c *config.Config) { c.DefaultProvider = "anthropic" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := offlineConfig()
			mutate(&cfg)
			app, err := New(context.Background(), cfg, Options{Service: "test"})
			if err == nil {
				app.Close()
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSplitAddrs(t *testing.T) {
	got := splitAddrs(" redis-a:6379, ,redis-b:6379 ")
	if strings.Join(got, "|") != "redis-a:6379|redis-b:6379" {
		t.Fatalf("unexpected addrs: %v", got)
	}
	if splitAddrs("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
