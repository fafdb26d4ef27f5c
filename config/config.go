// Package config loads the orchestrator's configuration from YAML and the
// environment, and assembles a ready-to-run Orchestrator from it. All
// wiring is explicit dependency injection; nothing here is a singleton.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meridianworks/codeatlas/cache"
	"github.com/meridianworks/codeatlas/embeddings"
	"github.com/meridianworks/codeatlas/internal/ratecontrol"
	"github.com/meridianworks/codeatlas/knowledge"
	"github.com/meridianworks/codeatlas/orchestrator"
	"github.com/meridianworks/codeatlas/relevance"
	"github.com/meridianworks/codeatlas/retrieval"
)

// Config is the full orchestrator configuration
type Config struct {
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	WebSearch  WebSearchConfig  `mapstructure:"web_search"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// KnowledgeConfig points at the graph-structured knowledge store
type KnowledgeConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	TopK       int           `mapstructure:"top_k"`
	Threshold  float64       `mapstructure:"threshold"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRelated int           `mapstructure:"max_related"`
}

// EmbeddingsConfig points at the embedding endpoint
type EmbeddingsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	MaxLRU   int           `mapstructure:"max_lru"`
}

// ScoringConfig points at the relevance scoring service. An empty BaseURL
// selects the local lexical heuristic instead.
type ScoringConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WebSearchConfig points at the external web search provider
type WebSearchConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Provider   string        `mapstructure:"provider"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the result cache backing store. An empty RedisAddr
// selects the in-process memory store.
type CacheConfig struct {
	RedisAddr      string        `mapstructure:"redis_addr"`
	TTL            time.Duration `mapstructure:"ttl"`
	MemoryCapacity int           `mapstructure:"memory_capacity"`
}

// SchedulerConfig holds the run-level bounds
type SchedulerConfig struct {
	Budget         time.Duration `mapstructure:"budget"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	StepTimeout    time.Duration `mapstructure:"step_timeout"`
}

// Load reads configuration from the given YAML file, falling back to
// CODEATLAS_* environment variables and built-in defaults. path may be
// empty, in which case only env and defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CODEATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("knowledge.host", "localhost")
	v.SetDefault("knowledge.port", 7474)
	v.SetDefault("knowledge.top_k", 5)
	v.SetDefault("knowledge.threshold", 0.0)
	v.SetDefault("knowledge.timeout", 5*time.Second)
	v.SetDefault("knowledge.max_related", 5)

	v.SetDefault("embeddings.base_url", "http://localhost:8091")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.timeout", 5*time.Second)
	v.SetDefault("embeddings.cache_ttl", time.Hour)
	v.SetDefault("embeddings.max_lru", 2048)

	v.SetDefault("scoring.base_url", "")
	v.SetDefault("scoring.timeout", 10*time.Second)

	v.SetDefault("web_search.base_url", "")
	v.SetDefault("web_search.provider", "tavily")
	v.SetDefault("web_search.max_results", 5)
	v.SetDefault("web_search.timeout", 10*time.Second)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.memory_capacity", 1024)

	v.SetDefault("scheduler.budget", orchestrator.DefaultBudget)
	v.SetDefault("scheduler.max_concurrency", orchestrator.DefaultMaxConcurrency)
	v.SetDefault("scheduler.step_timeout", 10*time.Second)
}

// Build assembles the full orchestrator from a loaded configuration:
// knowledge store client, embedding service, the four backends in tier
// order, validator, expander, and result cache.
func Build(cfg *Config, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := knowledge.NewClient(knowledge.Config{
		Host:       cfg.Knowledge.Host,
		Port:       cfg.Knowledge.Port,
		TopK:       cfg.Knowledge.TopK,
		Threshold:  cfg.Knowledge.Threshold,
		Timeout:    cfg.Knowledge.Timeout,
		MaxRelated: cfg.Knowledge.MaxRelated,
	}, logger)

	embedder := embeddings.NewService(embeddings.Config{
		BaseURL:      cfg.Embeddings.BaseURL,
		DefaultModel: cfg.Embeddings.Model,
		Timeout:      cfg.Embeddings.Timeout,
		CacheTTL:     cfg.Embeddings.CacheTTL,
		MaxLRU:       cfg.Embeddings.MaxLRU,
	}, logger)

	var scorer relevance.Scorer
	if cfg.Scoring.BaseURL != "" {
		scorer = relevance.NewRemoteScorer(relevance.RemoteScorerConfig{
			BaseURL: cfg.Scoring.BaseURL,
			Timeout: cfg.Scoring.Timeout,
		}, logger)
	} else {
		logger.Info("No scoring service configured, using lexical heuristic")
		scorer = relevance.LexicalScorer{}
	}

	web := retrieval.NewWebSearch(retrieval.WebConfig{
		BaseURL:    cfg.WebSearch.BaseURL,
		APIKey:     cfg.WebSearch.APIKey,
		Provider:   cfg.WebSearch.Provider,
		MaxResults: cfg.WebSearch.MaxResults,
		Timeout:    cfg.WebSearch.Timeout,
	}, ratecontrol.LimiterFor(cfg.WebSearch.Provider), logger)

	backends := []retrieval.Backend{
		retrieval.NewDirectLookup(store, logger),
		retrieval.NewVectorSearch(store, embedder, cfg.Knowledge.TopK, logger),
		retrieval.NewGraphKeywordSearch(store, cfg.Knowledge.TopK, logger),
		web,
	}

	var resultCache cache.Store
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(cfg.Cache.RedisAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("result cache: %w", err)
		}
		resultCache = rs
	} else {
		resultCache = cache.NewMemoryStore(cfg.Cache.MemoryCapacity)
	}

	return orchestrator.New(orchestrator.Options{
		CascadeOptions: orchestrator.CascadeOptions{
			Backends:    backends,
			Validator:   relevance.NewValidator(scorer, logger),
			Expander:    knowledge.NewExpander(store, cfg.Knowledge.MaxRelated, logger),
			Store:       resultCache,
			StepTimeout: cfg.Scheduler.StepTimeout,
			CacheTTL:    cfg.Cache.TTL,
			Logger:      logger,
		},
		Budget:         cfg.Scheduler.Budget,
		MaxConcurrency: cfg.Scheduler.MaxConcurrency,
	}), nil
}
