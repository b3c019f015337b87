package schema

// UserInput is the basic request body for invoking an agent.
type UserInput struct {
	// Message is the user input to the agent. When the thread has a pending
	// interrupt, it is treated as the resume value instead of a new turn.
	Message string `json:"message"`
	// Model selects the completion provider model for this run.
	Model string `json:"model,omitempty"`
	// ThreadID persists and continues a multi-turn conversation.
	ThreadID string `json:"thread_id,omitempty"`
	// UserID associates the run with an end user.
	UserID string `json:"user_id,omitempty"`
	// AgentConfig holds arbitrary key-value overrides merged into the run's
	// configurable namespace. Reserved keys are rejected.
	AgentConfig map[string]any `json:"agent_config,omitempty"`
}

// StreamInput is the request body for streaming an agent's response.
type StreamInput struct {
	UserInput
	// StreamTokens controls token-by-token delivery. Defaults to true.
	StreamTokens *bool `json:"stream_tokens,omitempty"`
	// StreamProtocol selects the wire protocol: "json" (default) or "agui".
	StreamProtocol string `json:"stream_protocol,omitempty"`
}

// TokenStreamingEnabled reports whether token deltas should be streamed.
func (s StreamInput) TokenStreamingEnabled() bool {
	return s.StreamTokens == nil || *s.StreamTokens
}

// ChatHistoryInput requests the message log of a thread.
type ChatHistoryInput struct {
	ThreadID string `json:"thread_id"`
}

// ChatHistory is the ordered message log of a thread.
type ChatHistory struct {
	Messages []ChatMessage `json:"messages"`
}

// Feedback records a score for a run, forwarded to the feedback collaborator.
type Feedback struct {
	RunID  string         `json:"run_id"`
	Key    string         `json:"key"`
	Score  float64        `json:"score"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// FeedbackResponse acknowledges recorded feedback.
type FeedbackResponse struct {
	Status string `json:"status"`
}

// AgentInfo describes one registered agent.
type AgentInfo struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// ServiceMetadata describes the service's agents and models.
type ServiceMetadata struct {
	Agents       []AgentInfo `json:"agents"`
	Models       []string    `json:"models"`
	DefaultAgent string      `json:"default_agent"`
	DefaultModel string      `json:"default_model"`
}
