package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockInvoker_DefaultResponse(t *testing.T) {
	mock := &MockInvoker{AgentID: "builder"}

	result, err := mock.Invoke(context.Background(), "implement the login page\nwith form validation", "ctx-from-earlier-steps", 0)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if !strings.Contains(result.Text, "builder") {
		t.Errorf("Text = %q, want agent id in response", result.Text)
	}
	if !strings.Contains(result.Text, "implement the login page") {
		t.Errorf("Text = %q, want first prompt line in response", result.Text)
	}
	if strings.Contains(result.Text, "form validation") {
		t.Errorf("Text = %q, canned response should only echo the first line", result.Text)
	}
	if result.TokenCount < 1 {
		t.Errorf("TokenCount = %d, want at least 1", result.TokenCount)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("Calls() returned %d calls, want 1", len(calls))
	}
	if calls[0].CompressedContext != "ctx-from-earlier-steps" {
		t.Errorf("recorded context = %q, want %q", calls[0].CompressedContext, "ctx-from-earlier-steps")
	}
}

func TestMockInvoker_Respond(t *testing.T) {
	scripted := &InvokeResult{Text: "scripted output", TokenCount: 42}
	mock := &MockInvoker{
		AgentID: "debugger",
		Respond: func(prompt, compressedContext string) (*InvokeResult, error) {
			return scripted, nil
		},
	}

	result, err := mock.Invoke(context.Background(), "anything", "", 0)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result != scripted {
		t.Errorf("Invoke() = %+v, want scripted result", result)
	}
}

func TestMockInvoker_RespondError(t *testing.T) {
	mock := &MockInvoker{
		AgentID: "debugger",
		Respond: func(prompt, compressedContext string) (*InvokeResult, error) {
			return nil, NewError(ErrRateLimit, "debugger", errors.New("429"))
		},
	}

	_, err := mock.Invoke(context.Background(), "anything", "", 0)

	var agentErr *Error
	if !errors.As(err, &agentErr) {
		t.Fatalf("Invoke() error = %T, want *Error", err)
	}
	if agentErr.Kind != ErrRateLimit {
		t.Errorf("Kind = %q, want %q", agentErr.Kind, ErrRateLimit)
	}
}

func TestMockInvoker_Timeout(t *testing.T) {
	mock := &MockInvoker{AgentID: "builder", Delay: 200 * time.Millisecond}

	_, err := mock.Invoke(context.Background(), "slow step", "", 10*time.Millisecond)

	var agentErr *Error
	if !errors.As(err, &agentErr) {
		t.Fatalf("Invoke() error = %T, want *Error", err)
	}
	if agentErr.Kind != ErrTimeout {
		t.Errorf("Kind = %q, want %q", agentErr.Kind, ErrTimeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("timeout error should unwrap to context.DeadlineExceeded")
	}
}

func TestMockInvoker_Canceled(t *testing.T) {
	mock := &MockInvoker{AgentID: "builder"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Invoke(ctx, "never runs", "", 0)
	if err == nil {
		t.Fatal("Invoke() on canceled context: error = nil, want non-nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Invoke() error = %v, want context.Canceled in chain", err)
	}
}
