/*
gemini.go - Gemini-backed SQL generation

PURPOSE:
  Wraps the google.golang.org/genai client behind the Generator
  interface so the ask flow (and its tests) never touch the SDK
  directly. Supports both the Gemini API (API key) and the Vertex AI
  backend (project + location), matching how the portal is deployed.
*/
package nlsql

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator produces a SQL string for a grounding prompt.
type Generator interface {
	GenerateSQL(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures the generative model client.
type GeminiConfig struct {
	// APIKey selects the Gemini API backend when set.
	APIKey string

	// Project and Location select the Vertex AI backend when APIKey is empty.
	Project  string
	Location string

	// Model is the model name, e.g. "gemini-2.0-flash".
	Model string
}

// Gemini generates SQL using a hosted Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the client. Exactly one backend must be
// configured: an API key, or a Vertex project and location.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("either an API key or a Vertex project and location are required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model}, nil
}

// GenerateSQL asks the model for a query and returns its raw text
// response. Fence stripping happens in the ask flow, not here.
func (g *Gemini) GenerateSQL(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}
