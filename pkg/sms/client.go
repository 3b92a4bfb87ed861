package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quaidirect/quaidirect-backend/pkg/config"
	"github.com/quaidirect/quaidirect-backend/pkg/logger"
)

const requestTimeout = 15 * time.Second

var (
	errAccountIDRequired = errors.New("sms account id is required")
	errAPIKeyRequired    = errors.New("sms api key is required")
	errFromRequired      = errors.New("sms sender number is required")
)

// Client wraps the SMS gateway's REST API with centralized auth and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiKey     string
	from       string
	logger     *logger.Logger
}

// NewClient initializes the SMS gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	accountID := strings.TrimSpace(cfg.AccountID)
	if accountID == "" {
		return nil, errAccountIDRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, errFromRequired
	}

	if logg != nil {
		logg.Info(ctx, "sms gateway client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountID:  accountID,
		apiKey:     apiKey,
		from:       from,
		logger:     logg,
	}, nil
}

// From returns the configured sender number.
func (c *Client) From() string {
	if c == nil {
		return ""
	}
	return c.from
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send submits one SMS and returns the provider message id.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	if c == nil {
		return "", errors.New("sms client not configured")
	}
	if strings.TrimSpace(to) == "" {
		return "", errors.New("recipient number is required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountID, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read sms response: %w", err)
	}

	var decoded messageResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode sms response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = strings.TrimSpace(string(payload))
		}
		return "", fmt.Errorf("sms gateway rejected send (status %d): %s", resp.StatusCode, msg)
	}

	return decoded.SID, nil
}
