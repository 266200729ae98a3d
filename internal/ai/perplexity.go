package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
)

// perplexityProvider is the AI Federation's fallback: Perplexity's
// sonar-pro model, which grounds its own answers with live web search and
// so needs no pre-enrichment block to be useful on its own (it still
// receives one when the router has results, for consistency). Grounded
// against the vendor's chat-completions endpoint
// (api.perplexity.ai/chat/completions, "sonar-pro").
type perplexityProvider struct {
	client *httpclient.Client
	apiURL string
	model  string
}

func NewPerplexityProvider(client *httpclient.Client) RawProvider {
	return &perplexityProvider{client: client, apiURL: "https://api.perplexity.ai/chat/completions", model: "sonar-pro"}
}

func (p *perplexityProvider) Name() string { return "perplexity" }

func (p *perplexityProvider) Call(ctx context.Context, prompt string) (string, error) {
	payload := chatCompletionRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   2000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	res, err := p.client.Do(ctx, "ai.perplexity", true, func(ctx context.Context, apiKey string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("perplexity: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
