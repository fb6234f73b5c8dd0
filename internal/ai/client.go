package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"browser-pilot/internal/config"
	"browser-pilot/pkg/apperr"
	"browser-pilot/pkg/logg"
	"browser-pilot/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	aiClientName = "Completer"
	aiTracer     = "ai.client"
)

// Client is the text-completion capability over an OpenAI-compatible chat
// completions endpoint. Treated as unreliable by its callers.
type Client struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	httpClient *http.Client
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewClient(params Params) *Client {
	return &Client{
		config:     params.Config,
		logger:     params.Logger.With(zap.String(logg.Layer, aiClientName)),
		tracer:     otel.Tracer(aiTracer),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	const op = "Complete"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.Int("prompt_len", len(prompt)))
	defer func() {
		step.End(err)
	}()

	if c.config.PlannerConfig.APIKey == "" {
		return "", apperr.WrapErrorWithReason(op, apperr.CodePlannerError, "no_api_key")
	}

	reqBody := chatRequest{
		Model:       c.config.PlannerConfig.Model,
		Temperature: temperature,
		MaxTokens:   c.config.PlannerConfig.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert web automation agent. Generate precise, executable automation plans."},
			{Role: "user", Content: prompt},
		},
	}

	step.AddEvent("marshaling request")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "marshal_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	endpoint := c.config.PlannerConfig.BaseURL + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "request_create_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.PlannerConfig.APIKey)

	step.AddEvent("sending HTTP request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodePlannerError, err, map[string]any{
			apperr.MetaReason: "http_request_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "read_body_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", apperr.Wrap(op, apperr.CodePlannerError,
			fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(body)),
			map[string]any{
				apperr.MetaReason: "api_error",
				apperr.MetaStage:  apperr.StagePlanning,
				"status_code":     httpResp.StatusCode,
			})
	}

	step.AddEvent("unmarshaling response")

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperr.Wrap(op, apperr.CodePlannerError, err, map[string]any{
			apperr.MetaReason: "unmarshal_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	if len(parsed.Choices) == 0 {
		return "", apperr.WrapErrorWithReason(op, apperr.CodePlannerError, "empty_choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
