package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const DefaultSlackEndpoint = "https://slack.com/api/chat.postMessage"

// SlackConfig holds Slack configuration.
type SlackConfig struct {
	APIToken string
	Channel  string
	// Endpoint overrides DefaultSlackEndpoint.
	Endpoint string
	Timeout  time.Duration
	Logger   Logger
}

func (c *SlackConfig) validate() error {
	if c.APIToken == "" {
		return errors.New("config: APIToken is required")
	}
	if c.Channel == "" {
		return errors.New("config: Channel is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// SlackSink posts All-severity messages to a Slack channel. Console messages are dropped.
type SlackSink struct {
	apiToken   string
	channel    string
	endpoint   string
	httpClient *http.Client
	logger     Logger
}

type slackMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

func NewSlackSink(cfg SlackConfig) (*SlackSink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultSlackEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SlackSink{
		apiToken:   cfg.APIToken,
		channel:    cfg.Channel,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

func (s *SlackSink) Notify(ctx context.Context, msg string, severity Severity) {
	if severity != All {
		return
	}
	if err := s.post(ctx, msg); err != nil {
		s.logger.Warn("failed to post slack message", "error", err)
	}
}

func (s *SlackSink) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(slackMessage{Channel: s.channel, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}
	return nil
}
