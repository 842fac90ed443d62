package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/journal-assistant/internal/config"
	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/core/ports"
	"github.com/kirillkom/journal-assistant/internal/core/usecase"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/cache/redis"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/embedding"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/templates"
	"github.com/kirillkom/journal-assistant/internal/observability/metrics"
)

// Options carries process-specific wiring.
type Options struct {
	Service string
	// Registerer receives dependency metrics; nil keeps them unexported.
	Registerer prometheus.Registerer
}

// Probe is a named dependency check used for health reporting.
type Probe struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

type App struct {
	Config config.Config

	Store  ports.EntryStore
	Bus    *nats.Bus
	Probes []Probe

	SearchUC *usecase.SearchUseCase
	QueryUC  *usecase.QueryUseCase
	ChatUC   *usecase.ChatUseCase

	closeFns []func()
}

type entryStore interface {
	ports.EntryStore
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}

	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	depMetrics := metrics.NewDependencyMetrics(registerer, opts.Service)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.ResilienceMaxRetries
	resilienceCfg.BreakerEnabled = cfg.ResilienceBreakerEnable
	executor := resilience.NewExecutor(resilienceCfg).WithStateObserver(depMetrics.ObserveBreakerState)

	store, db, err := openEntryStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closeFns = append(app.closeFns, func() { _ = db.Close() })
	app.Store = store
	app.Probes = append(app.Probes, Probe{Name: "entry_store", Required: true, Check: store.Ping})

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	openaiClient := openai.New(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.OpenAIChatModel,
		EmbeddingModel: cfg.OpenAIEmbedModel,
	}, executor)
	app.Probes = append(app.Probes, Probe{Name: "ollama", Check: ollamaClient.Ping})

	embedder, err := app.buildEmbedder(cfg, ollamaClient, openaiClient, depMetrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	answerTemplates, err := templates.Load(cfg.AnswerTemplatesPath)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load answer templates: %w", err)
	}

	var publisher ports.AnswerEventPublisher
	if strings.TrimSpace(cfg.NATSURL) != "" {
		bus, err := nats.New(cfg.NATSURL, nats.Options{
			AskSubject:         cfg.RAGAskSubject,
			AnsweredSubject:    cfg.RAGAnsweredSubject,
			QueueGroup:         cfg.NATSQueueGroup,
			RequestTimeout:     cfg.NATSRequestTimeout,
			ResilienceExecutor: executor,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message bus: %w", err)
		}
		app.Bus = bus
		app.closeFns = append(app.closeFns, bus.Close)
		publisher = bus
	}

	providers := map[domain.Provider]ports.CompletionProvider{
		domain.ProviderOllama: ollamaClient,
		domain.ProviderOpenAI: openaiClient,
	}
	profiles := map[domain.Provider]usecase.ProviderProfile{
		domain.ProviderOllama: {Model: cfg.OllamaGenModel, MaxTokens: cfg.OllamaMaxTokens},
		domain.ProviderOpenAI: {Model: cfg.OpenAIChatModel, MaxTokens: cfg.OpenAIMaxTokens},
	}
	defaultProvider := domain.ProviderOllama
	if strings.TrimSpace(cfg.DefaultProvider) != "" {
		defaultProvider, err = domain.ParseProvider(cfg.DefaultProvider)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("DEFAULT_PROVIDER: %w", err)
		}
	}

	app.SearchUC = usecase.NewSearchUseCase(
		usecase.NewLexicalSearcher(store),
		usecase.NewSemanticSearcher(store, embedder, cfg.SemanticEmbedConcurrency).WithEmbedTimeout(cfg.ProviderTimeout),
		usecase.SearchSettings{
			RRFK:         cfg.RAGFusionRRFK,
			DefaultLimit: cfg.SearchDefaultLimit,
			MaxLimit:     cfg.SearchMaxLimit,
		},
	)
	generator := usecase.NewAnswerGenerator(providers, answerTemplates, usecase.GenerationSettings{
		DefaultProvider: defaultProvider,
		Profiles:        profiles,
		Temperature:     cfg.GenerationTemperature,
		Timeout:         cfg.ProviderTimeout,
	})
	app.QueryUC = usecase.NewQueryUseCase(app.SearchUC, generator, publisher, usecase.QuerySettings{
		DefaultContextEntries: cfg.RAGDefaultEntries,
		MaxContextEntries:     cfg.RAGMaxEntries,
		MinRelevance:          cfg.RAGMinRelevance,
	})
	app.ChatUC = usecase.NewChatUseCase(providers, usecase.ChatSettings{
		DefaultProvider: defaultProvider,
		Profiles:        profiles,
		Temperature:     cfg.ChatTemperature,
		Timeout:         cfg.ProviderTimeout,
	})

	slog.Info("bootstrap_completed",
		"entry_store", cfg.EntryStore,
		"embedding_provider", cfg.EmbeddingProvider,
		"default_provider", defaultProvider,
		"openai_configured", openaiClient.Configured(),
		"bus_enabled", app.Bus != nil,
	)
	return app, nil
}

func openEntryStore(ctx context.Context, cfg config.Config) (entryStore, *sql.DB, error) {
	var (
		store entryStore
		db    *sql.DB
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.EntryStore)) {
	case "", "postgres":
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		store = postgres.NewEntryRepository(db)
	case "sqlite":
		db, err = sqlite.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		store = sqlite.NewEntryRepository(db)
	default:
		return nil, nil, fmt.Errorf("unsupported ENTRY_STORE %q", cfg.EntryStore)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, db, nil
}

// buildEmbedder assembles router -> cache. EMBEDDING_PROVIDER picks the
// default backend; "none" leaves semantic search on keyword scoring.
func (a *App) buildEmbedder(
	cfg config.Config,
	ollamaClient *ollama.Client,
	openaiClient *openai.Client,
	depMetrics *metrics.DependencyMetrics,
) (ports.Embedder, error) {
	router := &embedding.Router{
		Ollama:    ollamaClient,
		Synthetic: embedding.NewSynthetic(cfg.SyntheticDimensions),
	}
	if openaiClient.Configured() {
		router.OpenAI = openaiClient
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider)) {
	case "none":
		return nil, nil
	case "", "ollama":
		router.Default = router.Ollama
	case "openai":
		if router.OpenAI == nil {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=openai requires OPENAI_API_KEY")
		}
		router.Default = router.OpenAI
	case "synthetic", "mock":
		router.Default = router.Synthetic
	default:
		return nil, fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}

	addrs := splitAddrs(cfg.RedisAddrs)
	if len(addrs) == 0 {
		return router, nil
	}
	store, err := redis.NewStore(redis.Config{
		Addrs:    addrs,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	a.closeFns = append(a.closeFns, store.Close)
	a.Probes = append(a.Probes, Probe{Name: "redis", Check: store.Ping})
	return embedding.NewCached(router, store, cfg.EmbeddingCacheTTL, depMetrics.EmbeddingCacheLookups()), nil
}

func splitAddrs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
