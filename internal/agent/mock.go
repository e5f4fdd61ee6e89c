package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockInvoker produces deterministic responses without calling a
// provider. The demo command runs entirely on mock invokers, and tests
// script them through Respond.
type MockInvoker struct {
	// AgentID names the agent in responses and errors.
	AgentID string
	// Delay simulates provider latency before each response.
	Delay time.Duration
	// Respond overrides the canned response when set.
	Respond func(prompt, compressedContext string) (*InvokeResult, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records the arguments of one Invoke.
type MockCall struct {
	Prompt            string
	CompressedContext string
}

var _ Invoker = (*MockInvoker)(nil)

// Invoke waits out the configured delay, honoring cancellation and the
// timeout, then returns the scripted or canned response.
func (m *MockInvoker) Invoke(ctx context.Context, prompt, compressedContext string, timeout time.Duration) (*InvokeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, CompressedContext: compressedContext})
	m.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, m.ctxError(ctx)
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return nil, m.ctxError(ctx)
	}

	if m.Respond != nil {
		return m.Respond(prompt, compressedContext)
	}

	text := fmt.Sprintf("[%s] completed: %s", m.AgentID, firstLine(prompt))
	return &InvokeResult{
		Text:       text,
		TokenCount: EstimateTokens(prompt) + EstimateTokens(text),
	}, nil
}

func (m *MockInvoker) ctxError(ctx context.Context) *Error {
	if ctx.Err() == context.DeadlineExceeded {
		return NewError(ErrTimeout, m.AgentID, ctx.Err())
	}
	return NewError(ErrUnavailable, m.AgentID, ctx.Err())
}

// Calls returns a copy of the recorded invocations.
func (m *MockInvoker) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.calls...)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
