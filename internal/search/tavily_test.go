package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/skilldiff/internal/model"
)

func TestNewTavilyClient_RequiresKey(t *testing.T) {
	if _, err := NewTavilyClient(TavilyConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestTavilyClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("expected /search, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.APIKey != "tvly-test" {
			t.Errorf("expected api key in body, got %q", req.APIKey)
		}
		if req.SearchDepth != "advanced" || !req.IncludeAnswer || req.MaxResults != 10 {
			t.Errorf("unexpected request options: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"answer": " Ada Park won HackMIT 2023. ",
			"results": [
				{"url": "https://hackmit.org/winners", "title": "Winners", "content": "...", "score": 0.92},
				{"url": "https://devpost.com/ada", "title": "Ada", "score": 0.55}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewTavilyClient(TavilyConfig{APIKey: "tvly-test", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewTavilyClient failed: %v", err)
	}

	resp, err := client.Search(context.Background(), Request{
		Query:         "Ada Park HackMIT 2023",
		Depth:         model.SearchDepthAdvanced,
		IncludeAnswer: true,
		MaxResults:    10,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if resp.Answer != "Ada Park won HackMIT 2023." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].URL != "https://hackmit.org/winners" || resp.Results[0].Score != 0.92 {
		t.Errorf("unexpected first result %+v", resp.Results[0])
	}
}

func TestTavilyClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		capacity  bool
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true, true},
		{"out of credits", http.StatusPaymentRequired, true, false},
		{"server error", http.StatusBadGateway, false, true},
		{"bad request", http.StatusBadRequest, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":"nope"}`))
			}))
			defer server.Close()

			client, _ := NewTavilyClient(TavilyConfig{APIKey: "k", BaseURL: server.URL})
			_, err := client.Search(context.Background(), Request{Query: "q"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := model.CauseOf(err) == model.CauseCapacity; got != tt.capacity {
				t.Errorf("capacity = %v, want %v (%v)", got, tt.capacity, err)
			}
			if got := model.IsTransient(err); got != tt.transient {
				t.Errorf("transient = %v, want %v (%v)", got, tt.transient, err)
			}
		})
	}
}

func TestTavilyClient_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, _ := NewTavilyClient(TavilyConfig{APIKey: "k", BaseURL: server.URL})
	if _, err := client.Search(context.Background(), Request{Query: "q"}); err == nil {
		t.Error("expected decode error")
	}
}
