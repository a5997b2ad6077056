package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"ats-backend/internal/llm"
	"ats-backend/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

// contentGenerator is the subset of genai.Models the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API.
type Client struct {
	models contentGenerator
	model  string
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if timeout > 0 {
		cfg.HTTPOptions.Timeout = &timeout
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(client.Models, model), nil
}

func newClient(models contentGenerator, model string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: models, model: model}
}

// Name implements llm.Client.
func (c *Client) Name() string { return "gemini" }

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Complete sends req with temperature 0, as JSON when requested.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if c == nil || c.models == nil {
		return "", llm.ErrNotConfigured
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}
	if s := strings.TrimSpace(req.System); s != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini returned no response: %w", llm.ErrMalformedOutput)
	}

	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", fmt.Errorf("gemini returned empty response: %w", llm.ErrMalformedOutput)
	}

	fields := map[string]any{"provider": "gemini", "model": c.model, "duration_ms": time.Since(start).Milliseconds()}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return output, nil
}

// classify maps genai errors onto llm sentinels. RESOURCE_EXHAUSTED is quota
// on the Gemini API, so it is final rather than retried.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			msg = "quota exhausted: " + msg
		}
		return llm.Classify("gemini", apiErr.Code, msg)
	}
	return fmt.Errorf("gemini generate content: %w: %v", llm.ErrUnavailable, err)
}

var _ llm.Client = (*Client)(nil)
