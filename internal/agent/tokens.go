package agent

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the BPE encoding used for token estimation.
const encodingName = "cl100k_base"

// ModelPricing contains pricing per 1M tokens for a model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultModelPricing contains pricing for known Claude models.
var DefaultModelPricing = map[string]ModelPricing{
	"claude-opus-4-5-20251101":   {InputPerMillion: 15.00, OutputPerMillion: 75.00},
	"claude-sonnet-4-20250514":   {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-3-5-sonnet-20241022": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-3-5-haiku-20241022":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
}

// sonnetPricing is the fallback for unknown model names, including
// Bedrock inference profile names.
var sonnetPricing = ModelPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}

// Estimator counts tokens in text. It lazily loads the cl100k_base
// encoding and falls back to a bytes/4 heuristic when the encoding is
// unavailable, so token counts are always soft but never absent.
type Estimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewEstimator creates a token estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Count returns the estimated token count for text. Non-empty text
// always counts as at least one token.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}

	e.once.Do(func() {
		if enc, err := tiktoken.GetEncoding(encodingName); err == nil {
			e.enc = enc
		}
	})

	if e.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}

// defaultEstimator serves invokers that estimate rather than receive
// provider-reported counts.
var defaultEstimator = NewEstimator()

// EstimateTokens counts tokens with the shared default estimator.
func EstimateTokens(text string) int {
	return defaultEstimator.Count(text)
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	model     string
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker for the given model.
func NewTokenTracker(model string) *TokenTracker {
	return &TokenTracker{model: model}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset clears all tracked token usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = 0
	t.outputTok = 0
	t.calls = 0
}

// Cost estimates the cost in USD from the model's pricing. Unknown
// models are priced as Sonnet.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	pricing, ok := DefaultModelPricing[t.model]
	if !ok {
		pricing = sonnetPricing
	}

	inputCost := float64(t.inputTok) / 1_000_000 * pricing.InputPerMillion
	outputCost := float64(t.outputTok) / 1_000_000 * pricing.OutputPerMillion
	return inputCost + outputCost
}
