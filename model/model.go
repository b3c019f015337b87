// Package model provides interfaces for working with completion providers.
package model

import "context"

// Model is the interface for all completion providers.
//
// Error handling uses a dual-layer approach:
//
// 1. Function-level errors (returned as `error`): system-level failures that
// prevent communication, e.g. nil request, network issues. These prevent the
// channel from being created or used.
//
// 2. Response-level errors (Response.Error field): API-level errors returned
// by the provider, e.g. rate limits, content filtering. These are delivered
// through the response channel as structured errors.
//
// Usage pattern:
//
//	responseChan, err := m.GenerateContent(ctx, request)
//	if err != nil {
//	    return fmt.Errorf("failed to generate content: %w", err)
//	}
//	for response := range responseChan {
//	    if response.Error != nil {
//	        return fmt.Errorf("provider error: %s", response.Error.Message)
//	    }
//	    // Process successful response...
//	}
type Model interface {
	// GenerateContent generates content from the given request.
	//
	// Returns a channel of Response objects for streaming results, and an
	// error for system-level failures. The Response objects may contain
	// their own Error field for API-level errors.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a Model.
type Info struct {
	Name string
}
