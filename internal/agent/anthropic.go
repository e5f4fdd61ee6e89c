package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/batonlabs/baton/pkg/models"
)

// maxResponseTokens caps a single step response.
const maxResponseTokens = 8192

// ClientConfig contains configuration for creating an AnthropicInvoker.
type ClientConfig struct {
	// Profile identifies the agent this invoker serves. The profile's
	// capabilities become part of the system prompt.
	Profile models.AgentProfile
	// Model is the Claude model to use. Defaults to Sonnet.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// Tracker receives usage from every call. When nil a private
	// tracker is created.
	Tracker *TokenTracker
}

// AnthropicInvoker executes plan steps against the Anthropic API,
// directly or through AWS Bedrock.
type AnthropicInvoker struct {
	client  anthropic.Client
	model   anthropic.Model
	agentID string
	system  string
	tracker *TokenTracker
}

var _ Invoker = (*AnthropicInvoker)(nil)

// NewAnthropicInvoker creates an invoker bound to one agent profile.
func NewAnthropicInvoker(cfg ClientConfig) (*AnthropicInvoker, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		// AWS Bedrock path
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		// Traditional API key path
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseBedrock {
		model = translateModelForBedrock(model)
	}

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTokenTracker(cfg.Model)
	}

	return &AnthropicInvoker{
		client:  anthropic.NewClient(opts...),
		model:   model,
		agentID: cfg.Profile.ID,
		system:  SystemPromptFor(cfg.Profile),
		tracker: tracker,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
// Bedrock uses cross-region inference profiles: us.anthropic.{model}-v1:0
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}

	// Not in map: might already be Bedrock format or a custom model.
	return model
}

// SystemPromptFor renders the per-agent system prompt from a profile.
func SystemPromptFor(profile models.AgentProfile) string {
	return fmt.Sprintf(
		"You are %s, a specialist agent in a multi-agent engineering session. Your capabilities: %s. Complete the step you are given and reply with the outcome only.",
		profile.ID, profile.CapabilityList())
}

// Model returns the configured model name.
func (a *AnthropicInvoker) Model() anthropic.Model {
	return a.model
}

// Tracker returns the token tracker for this invoker.
func (a *AnthropicInvoker) Tracker() *TokenTracker {
	return a.tracker
}

// Invoke sends one prompt to the model and returns the text of the
// response. Earlier step results arrive in compressedContext and are
// placed ahead of the step prompt in the same user message.
func (a *AnthropicInvoker) Invoke(ctx context.Context, prompt, compressedContext string, timeout time.Duration) (*InvokeResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	userText := prompt
	if compressedContext != "" {
		userText = "Session context (AICF):\n" + compressedContext + "\n\nStep:\n" + prompt
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxResponseTokens,
		System: []anthropic.TextBlockParam{
			{Text: a.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	})
	if err != nil {
		return nil, a.classify(ctx, err)
	}

	a.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	if text.Len() == 0 {
		return nil, NewError(ErrMalformedResponse, a.agentID, errors.New("response contains no text content"))
	}

	return &InvokeResult{
		Text:       text.String(),
		TokenCount: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

// classify maps SDK failures onto the stable error kinds.
func (a *AnthropicInvoker) classify(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return NewError(ErrTimeout, a.agentID, err)
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusTooManyRequests:
			return NewError(ErrRateLimit, a.agentID, err)
		case apierr.StatusCode >= http.StatusInternalServerError:
			return NewError(ErrUnavailable, a.agentID, err)
		}
	}

	return NewError(ErrProvider, a.agentID, err)
}
