// Package simplify is the boundary to the external text-simplification
// service. The contract is strict: callers get either a simplified string
// or the fallback apology text. A hard failure never crosses this boundary.
package simplify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Fallback is the only failure surface callers ever see.
const Fallback = "Error decoding medical report. Please consult your physician directly."

const requestTimeout = 15 * time.Second

// Client talks to the simplification service. With no URL configured the
// client is offline and always returns the fallback.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	log    zerolog.Logger
}

func NewClient(url, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: requestTimeout},
		log:    log,
	}
}

type simplifyRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type simplifyResponse struct {
	Simplified string `json:"simplified"`
}

// Simplify rewrites the text for the target language and reading level.
// Every failure path, offline client included, returns the fallback string
// with a nil error.
func (c *Client) Simplify(ctx context.Context, text, targetLanguage string) string {
	if c.url == "" {
		return Fallback
	}

	payload, err := json.Marshal(simplifyRequest{Text: text, TargetLanguage: targetLanguage})
	if err != nil {
		return Fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Fallback
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("simplification call failed")
		return Fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("simplification service error")
		return Fallback
	}

	var out simplifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Simplified == "" {
		return Fallback
	}
	return out.Simplified
}
