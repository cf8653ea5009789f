package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
)

func TestResendNotifier_Send(t *testing.T) {
	var got resendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("expected /emails, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer re_test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	n, err := NewResendNotifier(ResendConfig{APIKey: "re_test", BaseURL: server.URL, From: "SkillDiff <results@skilldiff.dev>"})
	if err != nil {
		t.Fatalf("NewResendNotifier failed: %v", err)
	}

	err = n.Send(context.Background(), Message{To: "ada@example.com", Subject: "hi", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(got.To) != 1 || got.To[0] != "ada@example.com" || got.Subject != "hi" || got.From == "" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestResendNotifier_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to"}`))
	}))
	defer server.Close()

	n, _ := NewResendNotifier(ResendConfig{APIKey: "k", BaseURL: server.URL, From: "x@y.z"})
	err := n.Send(context.Background(), Message{To: "bad"})

	var ne *model.NotificationError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotificationError, got %v", err)
	}
	if ne.To != "bad" || !strings.Contains(err.Error(), "422") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestNewResendNotifier_Validation(t *testing.T) {
	if _, err := NewResendNotifier(ResendConfig{From: "x@y.z"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewResendNotifier(ResendConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without sender")
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logging.Discard())
	if err := n.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestResultsLink(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://skilldiff.dev/results", "https://skilldiff.dev/results?id=abc-123"},
		{"https://skilldiff.dev/results?ref=email", "https://skilldiff.dev/results?id=abc-123&ref=email"},
	}
	for _, tt := range tests {
		if got := ResultsLink(tt.base, "abc-123"); got != tt.want {
			t.Errorf("ResultsLink(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestResultsReady(t *testing.T) {
	bundle := &model.SubmissionResultBundle{
		ID:       "abc-123",
		FullName: "Ada Park",
		Records: []model.VerificationRecord{
			{Verdict: model.VerdictVerified},
			{Verdict: model.VerdictVerified},
			{Verdict: model.VerdictBullshit},
		},
	}

	msg, err := ResultsReady("ada@example.com", "https://skilldiff.dev/results", bundle)
	if err != nil {
		t.Fatalf("ResultsReady failed: %v", err)
	}
	if msg.To != "ada@example.com" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	for _, want := range []string{"3 claims", "Verified: 2", "Bullshit: 1", "Unsure: 0", "https://skilldiff.dev/results?id=abc-123"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("expected %q in body", want)
		}
	}
}

func TestFailure_IncludesEscapedDetail(t *testing.T) {
	msg, err := Failure("ada@example.com", errors.New(`verify claim 3: retrieve "<q>": boom`))
	if err != nil {
		t.Fatalf("Failure failed: %v", err)
	}
	if !strings.Contains(msg.HTML, "verify claim 3") || !strings.Contains(msg.HTML, "boom") {
		t.Error("expected error detail in body")
	}
	if strings.Contains(msg.HTML, "<q>") {
		t.Error("expected detail to be HTML-escaped")
	}
}

func TestAtCapacity(t *testing.T) {
	msg, err := AtCapacity("ada@example.com")
	if err != nil {
		t.Fatalf("AtCapacity failed: %v", err)
	}
	if !strings.Contains(msg.HTML, "capacity") || !strings.Contains(msg.Subject, "capacity") {
		t.Errorf("unexpected capacity message %+v", msg)
	}
}
