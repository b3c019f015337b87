package model

import (
	"github.com/JoshuaC215/agent-service-toolkit/schema"
	"github.com/JoshuaC215/agent-service-toolkit/tool"
)

// GenerationConfig contains configuration for text generation.
type GenerationConfig struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// Stream indicates whether to stream the response.
	Stream bool `json:"stream"`

	// Stop sequences where the provider will stop generating further tokens.
	Stop []string `json:"stop,omitempty"`
}

// Request is the request to the completion provider.
type Request struct {
	// Messages is the conversation history. Tombstoned and custom messages
	// are filtered out by the caller before submission.
	Messages []schema.Message `json:"messages"`

	// GenerationConfig contains the generation parameters.
	GenerationConfig `json:",inline"`

	// Tools declared to the provider. Not serialized, handled separately.
	Tools map[string]tool.Tool `json:"-"`
}
