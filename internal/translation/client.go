package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// OutcomeKind tags the result of a single model call. The fallback loop
// is driven by this tag rather than by error inspection.
type OutcomeKind int

const (
	// OutcomeSuccess carries the generated text.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTransient is a service-unavailable response, retried in place.
	OutcomeTransient
	// OutcomeQuota is a rate-limit response, triggering model fallback.
	OutcomeQuota
	// OutcomeFatal is any other failure, terminal for the whole call.
	OutcomeFatal
)

// Outcome is the tagged result of one model invocation.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Status int
	Err    error
}

// ModelBackend is the capability for invoking one generative model with
// a prompt. Implementations classify the response into an Outcome.
type ModelBackend interface {
	Generate(ctx context.Context, model, prompt string) Outcome
}

// ErrAllModelsExhausted reports that every candidate model was rate
// limited. It maps to the rate-limit-specific user-facing message.
var ErrAllModelsExhausted = errors.New("all translation models exhausted")

// ClientConfig holds the retry and fallback parameters for a Client.
type ClientConfig struct {
	// Models is the fixed priority list of candidates, tried left to right.
	Models []string
	// MaxAttempts bounds the in-place retry loop per model.
	MaxAttempts int
	// BackoffMin and BackoffMax bound the randomized sleep between
	// transient-failure retries.
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Client calls the model backend with retry on transient failures and
// fallback across model candidates on rate limiting. Fallback exists
// only to route around per-model quota exhaustion; any other failure is
// terminal, since retrying a misconfigured request blindly would not fix it.
type Client struct {
	backend     ModelBackend
	models      []string
	maxAttempts int
	backoffMin  time.Duration
	backoffMax  time.Duration
	log         *slog.Logger

	sleep func(time.Duration)
}

// NewClient creates a translation client over the given backend.
func NewClient(backend ModelBackend, cfg ClientConfig, log *slog.Logger) *Client {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffMin := cfg.BackoffMin
	if backoffMin <= 0 {
		backoffMin = 2 * time.Second
	}
	backoffMax := cfg.BackoffMax
	if backoffMax < backoffMin {
		backoffMax = backoffMin + 3*time.Second
	}

	return &Client{
		backend:     backend,
		models:      cfg.Models,
		maxAttempts: maxAttempts,
		backoffMin:  backoffMin,
		backoffMax:  backoffMax,
		log:         log.With("component", "translation_client"),
		sleep:       time.Sleep,
	}
}

// Translate runs the prompt through the model candidates in priority
// order and returns the first successful trimmed text.
func (c *Client) Translate(ctx context.Context, prompt string) (string, error) {
	var lastQuota Outcome
	quotaSeen := false

	for _, model := range c.models {
		out := c.callWithRetry(ctx, model, prompt)

		switch out.Kind {
		case OutcomeSuccess:
			text := strings.TrimSpace(out.Text)
			if text == "" {
				return "", fmt.Errorf("model %s returned an empty result", model)
			}
			return text, nil

		case OutcomeQuota:
			c.log.WarnContext(ctx, "Model rate limited, advancing to next candidate",
				"model", model, "status", out.Status)
			lastQuota = out
			quotaSeen = true

		case OutcomeTransient:
			return "", fmt.Errorf("model %s unavailable after %d attempts (status %d): %v",
				model, c.maxAttempts, out.Status, out.Err)

		default:
			return "", fmt.Errorf("model %s request failed (status %d): %v",
				model, out.Status, out.Err)
		}
	}

	if quotaSeen {
		return "", fmt.Errorf("%w: %v", ErrAllModelsExhausted, lastQuota.Err)
	}
	return "", ErrAllModelsExhausted
}

// callWithRetry invokes one model, retrying in place only on transient
// service-unavailable outcomes, with a randomized backoff between
// attempts. The final outcome, whatever its kind, is returned as is.
func (c *Client) callWithRetry(ctx context.Context, model, prompt string) Outcome {
	var out Outcome
	for attempt := 1; ; attempt++ {
		out = c.backend.Generate(ctx, model, prompt)
		if out.Kind != OutcomeTransient || attempt >= c.maxAttempts {
			return out
		}

		delay := c.backoffDelay()
		c.log.WarnContext(ctx, "Model temporarily unavailable, retrying",
			"model", model, "attempt", attempt, "delay", delay)
		c.sleep(delay)
	}
}

func (c *Client) backoffDelay() time.Duration {
	window := c.backoffMax - c.backoffMin
	if window <= 0 {
		return c.backoffMin
	}
	return c.backoffMin + time.Duration(rand.Int64N(int64(window)))
}
