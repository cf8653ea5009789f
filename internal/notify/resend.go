package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/util"
)

// DefaultResendURL is the public Resend API
const DefaultResendURL = "https://api.resend.com"

// ResendConfig configures the Resend notifier
type ResendConfig struct {
	APIKey     string
	BaseURL    string
	From       string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
}

// ResendNotifier sends email through the Resend HTTP API
type ResendNotifier struct {
	config ResendConfig
	client *http.Client
}

// NewResendNotifier creates a Resend notifier
func NewResendNotifier(config ResendConfig) (*ResendNotifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required (set RESEND_API_KEY)")
	}
	if config.From == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultResendURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &ResendNotifier{
		config: config,
		client: util.NewHTTPClient(config.Timeout, config.HTTPProxy, config.HTTPSProxy),
	}, nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg. Errors are *model.NotificationError.
func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    n.config.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return &model.NotificationError{To: msg.To, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return &model.NotificationError{To: msg.To, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.config.APIKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return &model.NotificationError{To: msg.To, Err: util.TransportError("resend", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &model.NotificationError{To: msg.To, Err: util.StatusError("resend", resp.StatusCode, respBody)}
	}
	return nil
}
