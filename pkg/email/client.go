package email

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

	"github.com/quaidirect/quaidirect-backend/pkg/config"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
)

const requestTimeout = 15 * time.Second

var errAPIKeyRequired = errors.New("email api key is required")

// Client wraps the transactional email provider's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	logger     *logger.Logger
}

// NewClient initializes the email provider wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.EmailConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	if logg != nil {
		logg.Info(ctx, "email client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		from:       strings.TrimSpace(cfg.DefaultFrom),
		logger:     logg,
	}, nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send submits one email and returns the provider message id when available.
func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	if c == nil {
		return "", errors.New("email client not configured")
	}
	if strings.TrimSpace(to) == "" {
		return "", errors.New("recipient address is required")
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from},
		Subject:          subject,
		Content:          []content{{Type: "text/plain", Value: body}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", fmt.Errorf("email provider rejected send (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return resp.Header.Get("X-Message-Id"), nil
}
