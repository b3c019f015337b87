package model

import (
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// Error type constants for ResponseError.Type field.
const (
	ErrorTypeStreamError = "stream_error"
	ErrorTypeAPIError    = "api_error"
)

// Object type constants for Response.Object field.
const (
	// ObjectTypeError is the object type for error responses.
	ObjectTypeError = "error"
	// ObjectTypeToolResponse is the object type for tool result events.
	ObjectTypeToolResponse = "tool.response"
	// ObjectTypeChatCompletionChunk is the object type for streamed chunks.
	ObjectTypeChatCompletionChunk = "chat.completion.chunk"
	// ObjectTypeChatCompletion is the object type for complete responses.
	ObjectTypeChatCompletion = "chat.completion"
	// ObjectTypeCustom is the object type for custom data dispatches.
	ObjectTypeCustom = "custom"
	// ObjectTypeInterrupt is the object type for interrupt events.
	ObjectTypeInterrupt = "interrupt"
	// ObjectTypeRunnerCompletion is the object type for run completion events.
	ObjectTypeRunnerCompletion = "runner.completion"
)

// Choice represents a single completion choice.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`

	// Message is the complete message content.
	Message schema.Message `json:"message,omitempty"`

	// Delta is the incremental message content for streamed chunks.
	Delta schema.Message `json:"delta,omitempty"`

	// FinishReason is the reason the choice was finished:
	// "stop", "length", "tool_calls", etc.
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseError represents an API-level error from the provider.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Response is the response from the completion provider. It is also the
// payload carried by execution events emitted from the graph executor, with
// Object distinguishing its kind.
type Response struct {
	// ID is the unique identifier for this response.
	ID string `json:"id"`

	// Object describes the type of object returned.
	Object string `json:"object"`

	// Created is the Unix timestamp when the response was created.
	Created int64 `json:"created,omitempty"`

	// Model is the model used to generate the response.
	Model string `json:"model,omitempty"`

	// Choices contains the completion choices.
	Choices []Choice `json:"choices"`

	// Usage contains token usage information, nil for partial responses.
	Usage *Usage `json:"usage,omitempty"`

	// Error contains API-level error information if the request failed.
	Error *ResponseError `json:"error,omitempty"`

	// Timestamp when this response was produced.
	Timestamp time.Time `json:"timestamp"`

	// Done indicates that this response ends its run segment.
	Done bool `json:"done"`

	// IsPartial indicates that this is a streamed partial response.
	IsPartial bool `json:"is_partial"`
}

// Clone creates a deep copy of the response.
func (rsp *Response) Clone() *Response {
	if rsp == nil {
		return nil
	}
	clone := *rsp
	clone.Choices = make([]Choice, len(rsp.Choices))
	copy(clone.Choices, rsp.Choices)
	if rsp.Usage != nil {
		u := *rsp.Usage
		clone.Usage = &u
	}
	if rsp.Error != nil {
		e := *rsp.Error
		clone.Error = &e
	}
	return &clone
}

// IsFinalResponse reports whether the response concludes a run.
func (rsp *Response) IsFinalResponse() bool {
	return rsp != nil && rsp.Done && !rsp.IsPartial
}
