// Package gemini implements ports.ModelClient against the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

const defaultModel = "gemini-3-flash-preview"

// Client wraps the genai SDK behind the single Complete operation the
// analysis core consumes.
type Client struct {
	client *genai.Client
	model  string
}

var _ ports.ModelClient = (*Client)(nil)

// New builds a client from configuration.
func New(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini client misconfigured: api key is empty")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Complete issues one generation request. When schemaHint is set the
// response is constrained to JSON and the hint rides along as a system
// instruction. Provider failures are mapped onto the shared taxonomy so the
// stage runner can classify them without SDK knowledge.
func (c *Client) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	genCfg := &genai.GenerateContentConfig{}
	if schemaHint != "" {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.SystemInstruction = genai.NewContentFromText(
			"Respond with a "+schemaHint+" and nothing else.", genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", classifyModelError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty completion: %w", domain.ErrMalformed)
	}
	return text, nil
}

func classifyModelError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("gemini quota: %w: %v", domain.ErrRateLimited, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("gemini server: %w: %v", domain.ErrUnavailable, err)
		default:
			return fmt.Errorf("gemini request rejected: %w", err)
		}
	}

	// Anything else is transport-level.
	return fmt.Errorf("gemini transport: %w: %v", domain.ErrUnavailable, err)
}
