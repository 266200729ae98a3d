package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
)

// braveProvider is the Primary stage: paid, high-quality, quota-limited.
type braveProvider struct {
	client *httpclient.Client
	apiURL string
}

func NewBraveProvider(client *httpclient.Client) Provider {
	return &braveProvider{client: client, apiURL: "https://api.search.brave.com/res/v1/web/search"}
}

func (p *braveProvider) Name() string            { return "brave" }
func (p *braveProvider) SupportsOperators() bool { return true }

func (p *braveProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	res, err := p.client.Do(ctx, "search.brave", false, func(ctx context.Context, apiKey string) (*http.Request, error) {
		u := fmt.Sprintf("%s?q=%s&count=%d", p.apiURL, url.QueryEscape(query), limit)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Subscription-Token", apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Description, SourceLabel: "brave"})
	}
	return out, nil
}

// mediastackProvider is the Secondary stage: free, self-rate-limited news
// search, suited to fixture/injury chatter rather than web-wide queries.
type mediastackProvider struct {
	client *httpclient.Client
	apiURL string
}

func NewMediastackProvider(client *httpclient.Client) Provider {
	return &mediastackProvider{client: client, apiURL: "https://api.mediastack.com/v1/news"}
}

func (p *mediastackProvider) Name() string            { return "mediastack" }
func (p *mediastackProvider) SupportsOperators() bool { return false }

func (p *mediastackProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	res, err := p.client.Do(ctx, "search.mediastack", false, func(ctx context.Context, apiKey string) (*http.Request, error) {
		u := fmt.Sprintf("%s?access_key=%s&keywords=%s&limit=%d", p.apiURL, apiKey, url.QueryEscape(query), limit)
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed.Data))
	for _, r := range parsed.Data {
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Description, SourceLabel: "mediastack"})
	}
	return out, nil
}

// tavilySearchProvider is the Tertiary stage: paid, small-budget, used
// sparingly once Primary/Secondary are exhausted.
type tavilySearchProvider struct {
	client *httpclient.Client
	apiURL string
}

func NewTavilyProvider(client *httpclient.Client) Provider {
	return &tavilySearchProvider{client: client, apiURL: "https://api.tavily.com/search"}
}

func (p *tavilySearchProvider) Name() string            { return "tavily" }
func (p *tavilySearchProvider) SupportsOperators() bool { return false }

func (p *tavilySearchProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	body := fmt.Sprintf(`{"query":%q,"max_results":%d}`, query, limit)
	res, err := p.client.Do(ctx, "search.tavily", false, func(ctx context.Context, apiKey string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, stringsReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Content, SourceLabel: "tavily"})
	}
	return out, nil
}

// duckduckgoProvider is the Last-resort stage: free, unlimited, scrape
// style. It is the one most likely to 403/429 on a stale fingerprint,
// which is why its httpclient.Client carries a FingerprintRotator.
type duckduckgoProvider struct {
	client *httpclient.Client
	apiURL string
}

func NewDuckDuckGoProvider(client *httpclient.Client) Provider {
	return &duckduckgoProvider{client: client, apiURL: "https://html.duckduckgo.com/html/"}
}

func (p *duckduckgoProvider) Name() string            { return "duckduckgo" }
func (p *duckduckgoProvider) SupportsOperators() bool { return false }

func (p *duckduckgoProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	res, err := p.client.Do(ctx, "search.duckduckgo", false, func(ctx context.Context, apiKey string) (*http.Request, error) {
		u := p.apiURL + "?q=" + url.QueryEscape(query)
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}

	out := parseDuckDuckGoHTML(string(res.Body), limit)
	return out, nil
}
