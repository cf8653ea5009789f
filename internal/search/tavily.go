package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/util"
)

// DefaultTavilyURL is the public Tavily API
const DefaultTavilyURL = "https://api.tavily.com"

// TavilyConfig configures the Tavily client
type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
}

// TavilyClient implements Provider against the Tavily search API
type TavilyClient struct {
	config TavilyConfig
	client *http.Client
}

// NewTavilyClient creates a Tavily client
func NewTavilyClient(config TavilyConfig) (*TavilyClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required (set TAVILY_API_KEY)")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultTavilyURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &TavilyClient{
		config: config,
		client: util.NewHTTPClient(config.Timeout, config.HTTPProxy, config.HTTPSProxy),
	}, nil
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Name returns the provider name
func (c *TavilyClient) Name() string {
	return "tavily"
}

// Endpoint returns the URL requests are sent to
func (c *TavilyClient) Endpoint() string {
	return c.config.BaseURL + "/search"
}

// Search runs one query
func (c *TavilyClient) Search(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:        c.config.APIKey,
		Query:         req.Query,
		SearchDepth:   string(req.Depth),
		IncludeAnswer: req.IncludeAnswer,
		MaxResults:    req.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, util.TransportError("tavily", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, util.TransportError("tavily", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, util.StatusError("tavily", resp.StatusCode, respBody)
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &Response{Answer: strings.TrimSpace(parsed.Answer)}
	for _, r := range parsed.Results {
		out.Results = append(out.Results, model.Source{URL: r.URL, Title: r.Title, Score: r.Score})
	}
	return out, nil
}
