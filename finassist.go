// Package finassist provides a top-level convenience entry point for
// assembling the full question-answering pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/finassist/finassist"
//
//	a, err := finassist.New(cfg)
//	state, err := a.Ask(ctx, "what is an ETF")
//
// New wires the retrieval index, chat provider, market data client,
// cache, and all four responder agents from the given configuration.
// Every component can be overridden through an Option, which is how
// tests substitute in-process fakes for the remote services.
package finassist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finassist/finassist/agent"
	"github.com/finassist/finassist/config"
	"github.com/finassist/finassist/internal/cache"
	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/llm"
	"github.com/finassist/finassist/llm/embedding"
	"github.com/finassist/finassist/marketdata"
	"github.com/finassist/finassist/rag"
	"github.com/finassist/finassist/workflow"
)

// Assistant is an assembled pipeline: router, agents, and their
// supporting services. Safe for concurrent Ask calls.
type Assistant struct {
	graph  *workflow.Graph
	cache  cache.Store
	logger *zap.Logger
}

type options struct {
	embedder  rag.EmbeddingProvider
	chat      llm.Provider
	market    marketdata.Provider
	cache     cache.Store
	collector *metrics.Collector
	counter   rag.TokenCounter
	logger    *zap.Logger
}

// Option overrides one component of the assembled pipeline.
type Option func(*options)

// WithEmbedder sets a pre-built embedding provider.
func WithEmbedder(p rag.EmbeddingProvider) Option { return func(o *options) { o.embedder = p } }

// WithChatProvider sets a pre-built chat provider.
func WithChatProvider(p llm.Provider) Option { return func(o *options) { o.chat = p } }

// WithMarketProvider sets a pre-built market data provider. The
// provider is used as-is; no cache layer is wrapped around it.
func WithMarketProvider(p marketdata.Provider) Option { return func(o *options) { o.market = p } }

// WithCache sets the cache store backing the market data layer.
func WithCache(s cache.Store) Option { return func(o *options) { o.cache = s } }

// WithMetrics sets the Prometheus collector. Without this option the
// pipeline runs unmetered.
func WithMetrics(c *metrics.Collector) Option { return func(o *options) { o.collector = c } }

// WithTokenCounter sets the token counter used for context budgeting.
func WithTokenCounter(c rag.TokenCounter) Option { return func(o *options) { o.counter = c } }

// WithLogger sets a custom zap logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// New assembles an Assistant from configuration. The retrieval index
// must already exist on disk; a missing index fails here, not at the
// first question.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Assistant, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	embedder := o.embedder
	if embedder == nil {
		p, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding provider: %w", err)
		}
		embedder = p
	}

	store, err := rag.NewStore(rag.StoreConfig{
		Dir: cfg.Index.Dir,
		Chunker: rag.ChunkerConfig{
			ChunkSize: cfg.Index.ChunkSize,
			Overlap:   cfg.Index.ChunkOverlap,
		},
		BatchSize: cfg.Embedding.BatchSize,
	}, embedder, o.logger)
	if err != nil {
		return nil, fmt.Errorf("index store: %w", err)
	}
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	retriever := rag.NewRetriever(store, embedder, cfg.Index.TopK, o.logger)

	chat := o.chat
	if chat == nil {
		p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:      cfg.Chat.APIKey,
			BaseURL:     cfg.Chat.BaseURL,
			Model:       cfg.Chat.Model,
			Temperature: cfg.Chat.Temperature,
			Timeout:     cfg.Chat.Timeout,
		}, o.logger)
		if err != nil {
			return nil, fmt.Errorf("chat provider: %w", err)
		}
		chat = p
	}

	cacheStore := o.cache
	if cacheStore == nil {
		if cfg.Redis.Enabled {
			manager, err := cache.NewManager(cache.Config{
				Addr:       cfg.Redis.Addr,
				Password:   cfg.Redis.Password,
				DB:         cfg.Redis.DB,
				DefaultTTL: cfg.Market.CacheTTL,
			}, o.logger)
			if err != nil {
				o.logger.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
				cacheStore = cache.NewMemory(cfg.Market.CacheTTL)
			} else {
				cacheStore = manager
			}
		} else {
			cacheStore = cache.NewMemory(cfg.Market.CacheTTL)
		}
	}

	market := o.market
	if market == nil {
		market = marketdata.NewCachedProvider(
			marketdata.NewAlphaVantage(marketdata.AlphaVantageConfig{
				APIKey:        cfg.Market.APIKey,
				BaseURL:       cfg.Market.BaseURL,
				Timeout:       cfg.Market.Timeout,
				RatePerMinute: cfg.Market.RatePerMinute,
			}, o.logger),
			cacheStore, cfg.Market.CacheTTL, o.collector, o.logger,
		)
	}

	counter := o.counter
	if counter == nil {
		counter = rag.NewTiktokenCounter("", o.logger)
	}

	registry := agent.NewRegistry()
	registry.Register(agent.NewFinanceQA(retriever, chat, counter, agent.FinanceQAConfig{
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		TopK:        cfg.Index.TopK,
		TokenBudget: cfg.Index.ContextTokenMax,
	}, o.collector, o.logger))
	registry.Register(agent.NewMarket(market, o.collector, o.logger))
	registry.Register(agent.NewPortfolio(o.logger))
	registry.Register(agent.NewGoals(o.logger))

	return &Assistant{
		graph:  workflow.NewGraph(registry, o.collector, o.logger),
		cache:  cacheStore,
		logger: o.logger,
	}, nil
}

// Ask routes one question through the pipeline and returns the final
// state. On a responder failure the state still carries the error
// message as its answer.
func (a *Assistant) Ask(ctx context.Context, query string) (*agent.State, error) {
	state := agent.NewState(query)
	err := a.graph.Run(ctx, state)
	return state, err
}

// Close releases the cache connection. The Assistant must not be used
// after Close.
func (a *Assistant) Close() error {
	return a.cache.Close()
}
