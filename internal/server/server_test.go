package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/pipeline"
)

// MockRunner records submissions it was asked to run
type MockRunner struct {
	mu   sync.Mutex
	subs []model.Submission
	done chan struct{}
}

func newMockRunner() *MockRunner {
	return &MockRunner{done: make(chan struct{}, 16)}
}

func (m *MockRunner) Run(ctx context.Context, sub model.Submission) *pipeline.Outcome {
	m.mu.Lock()
	m.subs = append(m.subs, sub)
	m.mu.Unlock()
	m.done <- struct{}{}
	return &pipeline.Outcome{ID: sub.ID, State: pipeline.StateNotified}
}

func (m *MockRunner) wait(t *testing.T) model.Submission {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("runner was not called")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[len(m.subs)-1]
}

func newTestServer(t *testing.T, runner Runner, cfg Config) *Server {
	t.Helper()
	s := New(cfg, runner, logging.Discard())
	s.newID = func() string { return "fixed-id" }
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmit_Accepted(t *testing.T) {
	runner := newMockRunner()
	s := newTestServer(t, runner, Config{})

	doc := base64.StdEncoding.EncodeToString([]byte("Ada Park, MIT"))
	rec := post(t, s.Handler(), "/", SubmitRequest{
		Email:       " ada@example.com ",
		Resumes:     []string{doc, doc},
		ContentType: "text/plain",
		Role:        "SWE",
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "fixed-id" {
		t.Errorf("expected id in response, got %+v", resp)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	sub := runner.wait(t)
	if sub.Email != "ada@example.com" || string(sub.Document) != "Ada Park, MIT" || sub.ContentType != "text/plain" || sub.Role != "SWE" {
		t.Errorf("unexpected submission %+v", sub)
	}
}

func TestSubmit_DocumentBytesBase64(t *testing.T) {
	runner := newMockRunner()
	s := newTestServer(t, runner, Config{})

	rec := post(t, s.Handler(), "/submit", SubmitRequest{
		Email:               "ada@example.com",
		DocumentBytesBase64: "data:text/markdown;base64," + base64.RawStdEncoding.EncodeToString([]byte("# Ada")),
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	sub := runner.wait(t)
	if string(sub.Document) != "# Ada" || sub.ContentType != "text/markdown" {
		t.Errorf("unexpected submission %+v", sub)
	}
}

func TestSubmit_BadRequests(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{})
	doc := base64.StdEncoding.EncodeToString([]byte("x"))

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing email", SubmitRequest{Resumes: []string{doc}}, "email"},
		{"missing document", SubmitRequest{Email: "a@b.c"}, "document"},
		{"empty resumes", SubmitRequest{Email: "a@b.c", Resumes: []string{""}}, "document"},
		{"bad base64", SubmitRequest{Email: "a@b.c", DocumentBytesBase64: "!!!"}, "base64"},
		{"not json", "just a string", "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s.Handler(), "/", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("expected %q in %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestSubmit_Preflight(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("unexpected methods header %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("unexpected headers header %q", got)
	}
}

func TestSubmit_MethodAndPath(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmit_Throttled(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{RequestsPerSecond: 0.001, Burst: 1})
	body := SubmitRequest{Email: "a@b.c", DocumentBytesBase64: base64.StdEncoding.EncodeToString([]byte("x"))}

	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusAccepted {
		t.Fatalf("expected first request accepted, got %d", rec.Code)
	}
	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{MaxBodyBytes: 64})
	body := SubmitRequest{Email: "a@b.c", DocumentBytesBase64: strings.Repeat("QUJD", 100)}

	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	runner := &blockingRunner{block: block}
	s := New(Config{Workers: 1, QueueSize: 1}, runner, logging.Discard())
	// Pool not started: the single queue slot fills and stays full
	body := SubmitRequest{Email: "a@b.c", DocumentBytesBase64: base64.StdEncoding.EncodeToString([]byte("x"))}

	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusAccepted {
		t.Fatalf("expected first request accepted, got %d", rec.Code)
	}
	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestSubmit_QueueSizeFromConfig(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	cfg := model.DefaultConfig().Server
	cfg.Workers = 1
	cfg.QueueSize = 2
	s := New(ConfigFromModel(cfg), &blockingRunner{block: block}, logging.Discard())
	body := SubmitRequest{Email: "a@b.c", DocumentBytesBase64: base64.StdEncoding.EncodeToString([]byte("x"))}

	for i := 0; i < 2; i++ {
		if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i, rec.Code)
		}
	}
	if rec := post(t, s.Handler(), "/", body); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 once the configured queue is full, got %d", rec.Code)
	}
}

type blockingRunner struct {
	block chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, sub model.Submission) *pipeline.Outcome {
	<-b.block
	return &pipeline.Outcome{ID: sub.ID}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, newMockRunner(), Config{})

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestDecodeDocument(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0x01}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		got, _, err := decodeDocument(enc.EncodeToString(raw))
		if err != nil || !bytes.Equal(got, raw) {
			t.Errorf("decode failed for %v: %v", enc, err)
		}
	}
}
