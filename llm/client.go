package llm

import "context"

// ============================================================================
// LLM — Language-model collaborator boundary
// ============================================================================
// The planner and the formatter are the only callers. Both send a free-text
// prompt and expect free text back that should contain one JSON object.
// Every failure is an *Error carrying a Kind so callers can choose between
// a fallback-model retry (overloaded) and the local path (unavailable).
// ============================================================================

// Request is one prompt.
type Request struct {
	Prompt      string
	Model       string  // empty = client default
	Temperature float32 // 0 = client default
	JSON        bool    // ask for a JSON mime type when the backend supports it
}

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
