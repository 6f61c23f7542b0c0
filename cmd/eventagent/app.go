package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/redis/go-redis/v9"
	"github.com/tbxark/eventagent/agent"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/dialogue"
	"github.com/tbxark/eventagent/extract"
	"github.com/tbxark/eventagent/internal/config"
	"github.com/tbxark/eventagent/internal/logger"
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/planner"
	"github.com/tbxark/eventagent/session"
	"github.com/tbxark/eventagent/types"
	"github.com/tbxark/eventagent/validate"
	"go.uber.org/zap"
)

const defaultModel = "gpt-4o-mini"

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	cat     *catalog.Registry
	norm    *normalize.Normalizer
	merger  *merge.Merger
	planner *planner.Planner
	flow    *agent.Flow
	engine  *agent.Engine

	memory *session.MemoryCache[*session.Session]
	redis  *redis.Client
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func loadCatalog(cfg *config.Config) (*catalog.Registry, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFile(cfg.Catalog.Path)
	}
	return catalog.Default()
}

func buildCore(cfg *config.Config, log *zap.Logger) (*app, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	norm, err := normalize.New(cat, normalize.WithBirthdayDefault(cfg.Normalize.BirthdayDefault))
	if err != nil {
		return nil, err
	}
	val := validate.New(cat)
	planOpts := []planner.Option{planner.WithLogger(log)}
	if len(cfg.Planner.Required) > 0 {
		keys := make([]types.Key, len(cfg.Planner.Required))
		for i, k := range cfg.Planner.Required {
			keys[i] = types.Key(k)
		}
		planOpts = append(planOpts, planner.WithRequired(keys...))
	}
	plan, err := planner.New(norm, val, planOpts...)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  log,
		cat:     cat,
		norm:    norm,
		merger:  merge.New(norm, val, merge.WithLogger(log)),
		planner: plan,
	}, nil
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a, err := buildCore(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := a.planner.Check(); err != nil {
		log.Error("clarification questions are incomplete", zap.Error(err))
	}

	oracle, responder, err := a.buildOracle(ctx)
	if err != nil {
		return nil, err
	}
	a.flow, err = agent.NewFlow(oracle, a.merger, a.planner, a.cat,
		agent.WithLogger(log),
		agent.WithOracleTimeout(cfg.LLM.Timeout),
		agent.WithResponder(responder),
	)
	if err != nil {
		return nil, err
	}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	engineOpts := []agent.EngineOption{
		agent.WithEngineLogger(log),
		agent.WithHistoryLimit(cfg.Session.HistoryLimit),
	}
	if a.memory != nil {
		engineOpts = append(engineOpts, agent.WithSweeper(a.memory))
	}
	a.engine = agent.NewEngine(a.flow, store, engineOpts...)
	return a, nil
}

// buildOracle returns the configured oracle with the local oracle as its
// last fallback, and a responder when replies should be phrased by a model.
func (a *app) buildOracle(ctx context.Context) (extract.Oracle, dialogue.Responder, error) {
	llm := a.cfg.LLM
	local := extract.NewLocalOracle(a.norm)
	model := llm.Model
	if model == "" {
		model = defaultModel
	}
	switch llm.Provider {
	case "eino":
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  llm.APIKey,
			Model:   model,
			BaseURL: llm.BaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create chat model: %w", err)
		}
		var responder dialogue.Responder
		if llm.Rephrase {
			responder, err = dialogue.NewToolBasedResponder(cm, a.cat, dialogue.WithLang(llm.Language))
			if err != nil {
				return nil, nil, err
			}
		}
		a.logger.Info("using tool calling oracle", zap.String("model", model))
		return extract.NewFailbackOracle(extract.NewToolOracle(cm, a.cat), local), responder, nil
	case "openai":
		a.logger.Info("using json mode oracle", zap.String("model", model))
		oracle := extract.NewOpenAIOracle(extract.OpenAIConfig{
			APIKey:  llm.APIKey,
			BaseURL: llm.BaseURL,
			Model:   model,
		})
		return extract.NewFailbackOracle(oracle, local), nil, nil
	default:
		a.logger.Info("using local keyword oracle")
		return local, nil, nil
	}
}

func (a *app) buildStore(ctx context.Context) (*session.Store, error) {
	sc := a.cfg.Session
	if sc.Store == "redis" {
		a.redis = session.NewRedisClient(session.RedisConfig{
			Address:  a.cfg.Redis.Address,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return session.NewStore(session.NewRedisCache[*session.Session](a.redis, sc.TTL)), nil
	}
	a.memory = session.NewMemoryCache[*session.Session](sc.TTL)
	return session.NewStore(a.memory), nil
}

// sweep drops expired in-memory sessions until ctx ends.
func (a *app) sweep(ctx context.Context, every time.Duration) {
	if a.memory == nil || a.cfg.Session.TTL <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.engine.Sweep()
		}
	}
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}
