package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
)

// deepseekProvider is the AI Federation's primary: a JSON-mode chat
// completion call via OpenRouter. Grounded on
// the vendor's chat-completions request shape (model, messages,
// temperature 0.3, max_tokens 2000, HTTP-Referer/X-Title headers required
// by OpenRouter).
type deepseekProvider struct {
	client *httpclient.Client
	model  string
	apiURL string
}

func NewDeepSeekProvider(client *httpclient.Client, model string) RawProvider {
	if model == "" {
		model = "deepseek/deepseek-chat-v3-0324"
	}
	return &deepseekProvider{client: client, model: model, apiURL: "https://openrouter.ai/api/v1/chat/completions"}
}

func (p *deepseekProvider) Name() string { return "deepseek" }

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *deepseekProvider) Call(ctx context.Context, prompt string) (string, error) {
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

	res, err := p.client.Do(ctx, "ai.deepseek", true, func(ctx context.Context, apiKey string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("HTTP-Referer", "https://earlybird.betting")
		req.Header.Set("X-Title", "EarlyBird Betting Intelligence")
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
		return "", fmt.Errorf("deepseek: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
