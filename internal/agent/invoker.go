// Package agent provides the invoker boundary between the orchestrator
// and the model providers that execute plan steps. The orchestrator only
// sees the Invoker interface; Anthropic, Bedrock, and mock
// implementations live behind it.
package agent

import (
	"context"
	"time"
)

// InvokeResult is the outcome of a single agent invocation.
type InvokeResult struct {
	// Text is the agent's full textual response.
	Text string
	// TokenCount is the total tokens consumed by the call, as reported
	// by the provider or estimated when the provider reports nothing.
	TokenCount int
}

// Invoker executes one prompt against a model provider. The compressed
// context carries earlier step results in AICF form; implementations
// pass it to the model alongside the prompt. A zero timeout means the
// caller's context is the only deadline.
type Invoker interface {
	Invoke(ctx context.Context, prompt, compressedContext string, timeout time.Duration) (*InvokeResult, error)
}
