// Package server exposes registered agents over HTTP: synchronous invoke,
// SSE streaming, thread history, feedback recording and service metadata.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/JoshuaC215/agent-service-toolkit/agent"
	"github.com/JoshuaC215/agent-service-toolkit/log"
	"github.com/JoshuaC215/agent-service-toolkit/model"
	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// reservedConfigKeys collide with top-level request fields and are rejected
// in agent_config.
var reservedConfigKeys = []string{"thread_id", "model", "user_id"}

// ModelFactory resolves a model name from a request to a completion
// provider instance.
type ModelFactory func(name string) (model.Model, error)

// Server routes HTTP requests to registered agents.
type Server struct {
	registry     *agent.Registry
	router       *mux.Router
	authSecret   string
	feedback     FeedbackRecorder
	modelFactory ModelFactory
	models       []string
	defaultModel string
}

// Option configures the Server instance.
type Option func(*Server)

// WithAuthSecret enables bearer-token auth with the given secret. An empty
// secret leaves the service open.
func WithAuthSecret(secret string) Option {
	return func(s *Server) { s.authSecret = secret }
}

// WithFeedbackRecorder sets the collaborator that /feedback forwards to.
func WithFeedbackRecorder(recorder FeedbackRecorder) Option {
	return func(s *Server) { s.feedback = recorder }
}

// WithModels declares the model names clients may select per request,
// resolved through the factory.
func WithModels(factory ModelFactory, models []string, defaultModel string) Option {
	return func(s *Server) {
		s.modelFactory = factory
		s.models = models
		s.defaultModel = defaultModel
	}
}

// New creates a server for the given agent registry.
func New(registry *agent.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		router:   mux.NewRouter(),
		feedback: NoopFeedbackRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.router.Use(s.authMiddleware)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/invoke", s.handleInvoke).Methods(http.MethodPost)
	s.router.HandleFunc("/{agentID}/invoke", s.handleInvoke).Methods(http.MethodPost)
	s.router.HandleFunc("/stream", s.handleStream).Methods(http.MethodPost)
	s.router.HandleFunc("/{agentID}/stream", s.handleStream).Methods(http.MethodPost)
	s.router.HandleFunc("/history", s.handleHistory).Methods(http.MethodPost)
	s.router.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// authMiddleware enforces the bearer token on every route except /health.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authSecret == "" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.authSecret {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveAgent returns the agent addressed by the request path, or the
// default agent for the bare endpoints.
func (s *Server) resolveAgent(r *http.Request) (*agent.Agent, error) {
	return s.registry.Get(mux.Vars(r)["agentID"])
}

// validateUserInput rejects reserved agent_config keys before any node
// executes.
func validateUserInput(input *schema.UserInput) error {
	var overlap []string
	for _, key := range reservedConfigKeys {
		if _, ok := input.AgentConfig[key]; ok {
			overlap = append(overlap, key)
		}
	}
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return fmt.Errorf("agent_config contains reserved keys: [%s]", strings.Join(overlap, ", "))
	}
	return nil
}

// buildRunInput converts a request body into the agent's run input,
// resolving a per-request model override when configured.
func (s *Server) buildRunInput(input *schema.UserInput) (*agent.RunInput, error) {
	runInput := &agent.RunInput{
		ThreadID:     input.ThreadID,
		RunID:        uuid.New().String(),
		UserID:       input.UserID,
		Message:      input.Message,
		Configurable: input.AgentConfig,
	}
	if input.Model != "" && s.modelFactory != nil {
		override, err := s.modelFactory(input.Model)
		if err != nil {
			return nil, fmt.Errorf("unknown model %q", input.Model)
		}
		runInput.Model = override
	}
	return runInput, nil
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var input schema.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateUserInput(&input); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := s.resolveAgent(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	runInput, err := s.buildRunInput(&input)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	final, err := a.Invoke(r.Context(), runInput)
	if err != nil {
		log.Errorf("invoke failed for agent %s: %v", a.Info().Name, err)
		s.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	chatMessage, err := schema.ToChatMessage(*final)
	if err != nil {
		log.Errorf("failed to serialize final message: %v", err)
		s.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	chatMessage.RunID = runInput.RunID
	s.writeJSON(w, chatMessage)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var input schema.ChatHistoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.ThreadID == "" {
		s.writeError(w, http.StatusBadRequest, "thread_id is required")
		return
	}
	a, err := s.registry.Get("")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	messages, err := a.History(r.Context(), input.ThreadID)
	if err != nil {
		log.Errorf("history lookup failed for thread %s: %v", input.ThreadID, err)
		s.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	history := schema.ChatHistory{Messages: make([]schema.ChatMessage, 0, len(messages))}
	for _, msg := range messages {
		chatMessage, err := schema.ToChatMessage(msg)
		if err != nil {
			continue
		}
		history.Messages = append(history.Messages, chatMessage)
	}
	s.writeJSON(w, history)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var feedback schema.Feedback
	if err := json.NewDecoder(r.Body).Decode(&feedback); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if feedback.RunID == "" || feedback.Key == "" {
		s.writeError(w, http.StatusBadRequest, "run_id and key are required")
		return
	}
	if err := s.feedback.Record(r.Context(), feedback); err != nil {
		log.Errorf("failed to record feedback for run %s: %v", feedback.RunID, err)
		s.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	s.writeJSON(w, schema.FeedbackResponse{Status: "success"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.List()
	metadata := schema.ServiceMetadata{
		Agents:       make([]schema.AgentInfo, 0, len(infos)),
		Models:       s.models,
		DefaultAgent: s.registry.DefaultName(),
		DefaultModel: s.defaultModel,
	}
	for _, info := range infos {
		metadata.Agents = append(metadata.Agents, schema.AgentInfo{
			Key:         info.Name,
			Description: info.Description,
		})
	}
	s.writeJSON(w, metadata)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
