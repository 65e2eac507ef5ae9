// Package gemini implements the translation model backend on top of
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/translation"
)

// Backend adapts the genai SDK to the translation.ModelBackend
// capability. One Backend serves every model candidate; the model name
// is chosen per call.
type Backend struct {
	client        *genai.Client
	contentConfig *genai.GenerateContentConfig
	log           *slog.Logger
}

// NewBackend creates a Gemini backend with the provided configuration.
func NewBackend(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "gemini_backend")
	logger.Info("Gemini backend initialized", "models", cfg.Models)
	return &Backend{
		client:        client,
		contentConfig: contentConfig,
		log:           logger,
	}, nil
}

// Generate invokes one model with the prompt and classifies the
// response. Service-unavailable maps to a transient outcome, rate
// limiting to a quota outcome, and anything else unexpected to a fatal one.
func (b *Backend) Generate(ctx context.Context, model, prompt string) translation.Outcome {
	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), b.contentConfig)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusServiceUnavailable:
				b.log.WarnContext(ctx, "Gemini temporarily unavailable", "model", model, "error", err)
				return translation.Outcome{Kind: translation.OutcomeTransient, Status: apiErr.Code, Err: err}
			case http.StatusTooManyRequests:
				b.log.WarnContext(ctx, "Gemini rate limit reached", "model", model, "error", err)
				return translation.Outcome{Kind: translation.OutcomeQuota, Status: apiErr.Code, Err: err}
			default:
				b.log.ErrorContext(ctx, "Gemini call failed", "model", model, "code", apiErr.Code, "error", err)
				return translation.Outcome{Kind: translation.OutcomeFatal, Status: apiErr.Code, Err: err}
			}
		}

		b.log.ErrorContext(ctx, "Gemini call failed with non-API error", "model", model, "error", err)
		return translation.Outcome{Kind: translation.OutcomeFatal, Err: err}
	}

	return translation.Outcome{
		Kind:   translation.OutcomeSuccess,
		Text:   resp.Text(),
		Status: http.StatusOK,
	}
}
