package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService delivers chat messages to the connector via HTTP POST.
type HTTPService struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewHTTPService creates an HTTP-based chat gateway posting to url.
func NewHTTPService(url string, log zerolog.Logger) *HTTPService {
	return &HTTPService{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:        log.With().Str("component", "webhook").Logger(),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

// SendMessage posts one chat message to the connector webhook. An empty
// thread timestamp posts to the channel top level.
func (s *HTTPService) SendMessage(ctx context.Context, channel, text, threadTS string) error {
	if s.url == "" {
		s.log.Debug().Str("channel", channel).Msg("no webhook URL configured, skipping delivery")
		return nil
	}

	payload := MessagePayload{
		Channel:  channel,
		ThreadTS: threadTS,
		Text:     text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "docbot/1.0")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send message (attempt %d/%d): %w", attempt, s.maxRetries, err)
			s.log.Warn().Err(err).Str("channel", channel).Int("attempt", attempt).Msg("message delivery failed")

			if attempt < s.maxRetries {
				time.Sleep(s.retryDelay)
				continue
			}
			break
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("channel", channel).Int("status", resp.StatusCode).Msg("message delivered")
			return nil
		}

		lastErr = fmt.Errorf("webhook returned status %d (attempt %d/%d)", resp.StatusCode, attempt, s.maxRetries)
		s.log.Warn().Int("status", resp.StatusCode).Str("channel", channel).Int("attempt", attempt).Msg("message delivery failed")

		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	return lastErr
}
