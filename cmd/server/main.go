// Package main runs the agent service: it wires the configured model
// provider, checkpoint store and content guard into the agent registry and
// serves it over HTTP.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/JoshuaC215/agent-service-toolkit/agent"
	"github.com/JoshuaC215/agent-service-toolkit/config"
	"github.com/JoshuaC215/agent-service-toolkit/graph"
	"github.com/JoshuaC215/agent-service-toolkit/graph/checkpoint/inmemory"
	checkpointredis "github.com/JoshuaC215/agent-service-toolkit/graph/checkpoint/redis"
	checkpointsqlite "github.com/JoshuaC215/agent-service-toolkit/graph/checkpoint/sqlite"
	"github.com/JoshuaC215/agent-service-toolkit/log"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/model/openai"
	"github.com/JoshuaC215/agent-service-toolkit/server"
	"github.com/JoshuaC215/agent-service-toolkit/telemetry/trace"
)

const (
	serviceName     = "agent-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	if cfg.TracingEnabled {
		shutdown, err := trace.Start(ctx, serviceName)
		if err != nil {
			log.Fatalf("start tracing: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Errorf("shut down tracing: %v", err)
			}
		}()
	}

	factory := modelFactory(cfg)
	saver, closeSaver, err := newCheckpointSaver(cfg)
	if err != nil {
		log.Fatalf("open checkpoint store %q: %v", cfg.CheckpointStore, err)
	}
	defer closeSaver()

	registry, err := buildRegistry(cfg, factory, saver)
	if err != nil {
		log.Fatalf("build agent registry: %v", err)
	}

	serverOpts := []server.Option{
		server.WithModels(factory, cfg.AvailableModels, cfg.DefaultModel),
	}
	if cfg.AuthSecret != "" {
		serverOpts = append(serverOpts, server.WithAuthSecret(cfg.AuthSecret))
	}
	if cfg.FeedbackWebhookURL != "" {
		serverOpts = append(serverOpts,
			server.WithFeedbackRecorder(server.NewWebhookFeedbackRecorder(cfg.FeedbackWebhookURL)))
	}
	svc := server.New(registry, serverOpts...)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: svc.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (checkpoint store: %s, default model: %s)",
			cfg.Addr(), cfg.CheckpointStore, cfg.DefaultModel)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shut down http server: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}
}

// modelFactory builds OpenAI-compatible model instances from the configured
// provider credentials.
func modelFactory(cfg *config.Config) server.ModelFactory {
	var opts []openai.Option
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, openai.WithAPIKey(cfg.OpenAIAPIKey))
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return func(name string) (model.Model, error) {
		return openai.New(name, opts...), nil
	}
}

// newCheckpointSaver opens the configured checkpoint backend. The returned
// close function releases the backend's resources on shutdown.
func newCheckpointSaver(cfg *config.Config) (graph.CheckpointSaver, func(), error) {
	switch cfg.CheckpointStore {
	case config.StoreMemory:
		return inmemory.NewSaver(), func() {}, nil
	case config.StoreSQLite:
		db, err := sql.Open("sqlite", cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		saver, err := checkpointsqlite.NewSaver(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return saver, func() {
			if err := saver.Close(); err != nil {
				log.Errorf("close sqlite checkpoint store: %v", err)
			}
		}, nil
	case config.StoreRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		saver, err := checkpointredis.NewSaver(redis.NewClient(redisOpts))
		if err != nil {
			return nil, nil, err
		}
		return saver, func() {
			if err := saver.Close(); err != nil {
				log.Errorf("close redis checkpoint store: %v", err)
			}
		}, nil
	default:
		return nil, nil, errors.New("unknown checkpoint store")
	}
}

// buildRegistry constructs every served agent against the shared checkpoint
// saver and registers the chatbot as the default.
func buildRegistry(cfg *config.Config, factory server.ModelFactory, saver graph.CheckpointSaver) (*agent.Registry, error) {
	llm, err := factory(cfg.DefaultModel)
	if err != nil {
		return nil, err
	}
	var guard *agent.ContentGuard
	if cfg.GuardModel != "" {
		guardLLM, err := factory(cfg.GuardModel)
		if err != nil {
			return nil, err
		}
		guard = agent.NewContentGuard(guardLLM)
	}

	withSaver := agent.WithCheckpointSaver(saver)

	chatbot, err := agent.NewChatbot(llm, withSaver)
	if err != nil {
		return nil, err
	}
	research, err := agent.NewResearchAssistant(llm, agent.ResearchConfig{Guard: guard}, withSaver)
	if err != nil {
		return nil, err
	}
	interrupt, err := agent.NewInterruptAgent(llm, withSaver)
	if err != nil {
		return nil, err
	}
	bgTask, err := agent.NewBackgroundTaskAgent(llm,
		agent.BackgroundTaskConfig{StepDelay: 2 * time.Second}, withSaver)
	if err != nil {
		return nil, err
	}
	supervisor, err := agent.NewSupervisorAgent(llm, agent.SupervisorConfig{}, withSaver)
	if err != nil {
		return nil, err
	}

	registry := agent.NewRegistry()
	for _, a := range []*agent.Agent{chatbot, research, interrupt, bgTask, supervisor} {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	if err := registry.SetDefault(chatbot.Info().Name); err != nil {
		return nil, err
	}
	return registry, nil
}
