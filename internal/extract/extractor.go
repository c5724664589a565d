// Package extract turns free-text availability messages into structured
// unavailable time slots by calling an external text-completion service.
// It is the sole owner of prompt construction and response validation;
// nothing else talks to that service.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/utils"
)

// ErrorKind discriminates extraction failure classes so callers can surface
// distinct, actionable messages.
type ErrorKind string

const (
	// KindNetwork covers transport failures and timeouts
	KindNetwork ErrorKind = "network"
	// KindAPI covers non-2xx responses from the completion service
	KindAPI ErrorKind = "api"
	// KindParse covers malformed or schema-violating response bodies
	KindParse ErrorKind = "parse"
)

// ExtractionError reports that the external call did not yield usable
// structured data. Re-submitting the same message is always safe.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Kind, e.Detail)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Request carries everything the extractor embeds into its prompt
type Request struct {
	// Message is the participant's raw free-text input
	Message string
	// Now anchors relative phrases like "tomorrow"
	Now time.Time
	// TargetDate is the room's committed period context
	TargetDate time.Time
	// Existing lets the model reason about deltas instead of whole days
	Existing models.UnavailableSlotsByDate
}

// Extractor converts a free-text message into per-date unavailable intervals.
// Implementations are injected so tests can substitute a deterministic fake;
// the live model is never unit-tested directly.
type Extractor interface {
	Extract(ctx context.Context, req Request) (models.UnavailableSlotsByDate, error)
}

// Client calls an OpenAI-compatible chat-completions endpoint. Exactly one
// HTTP request is made per extraction.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

// NewClient creates a completion-service client from configuration. The
// configured timeout bounds the whole call; the zero value falls back to 20s.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// slotsDocument is the fixed response schema requested from the model
type slotsDocument struct {
	UnavailableSlotsByDate map[string][]models.UnavailableInterval `json:"unavailableSlotsByDate"`
}

// Extract sends the assembled prompt and validates the structured response.
// Individually invalid intervals are dropped and logged rather than failing
// the whole extraction; a mis-shaped document is a parse error.
func (c *Client) Extract(ctx context.Context, req Request) (models.UnavailableSlotsByDate, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0.3,
		MaxTokens:   1000,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(req)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, &ExtractionError{Kind: KindParse, Detail: "failed to encode request", Err: err}
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Kind: KindNetwork, Detail: "failed to create request", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ExtractionError{Kind: KindNetwork, Detail: "completion service unreachable", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{Kind: KindNetwork, Detail: "failed to read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{
			Kind:   KindAPI,
			Detail: fmt.Sprintf("completion service returned status %d: %s", resp.StatusCode, utils.SanitizeLogString(string(respBody))),
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, &ExtractionError{Kind: KindParse, Detail: "response body is not valid JSON", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &ExtractionError{Kind: KindParse, Detail: "response contains no choices"}
	}

	return parseSlotsDocument(completion.Choices[0].Message.Content)
}

// parseSlotsDocument validates the model's JSON against the fixed schema and
// normalizes every interval. Entries that fail validation are dropped one by
// one; keeping the rest is deliberate partial-failure tolerance.
func parseSlotsDocument(content string) (models.UnavailableSlotsByDate, error) {
	content = trimCodeFence(content)

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()

	var doc slotsDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, &ExtractionError{Kind: KindParse, Detail: "model output does not match the slot schema", Err: err}
	}
	if doc.UnavailableSlotsByDate == nil {
		return nil, &ExtractionError{Kind: KindParse, Detail: "model output is missing unavailableSlotsByDate"}
	}

	result := make(models.UnavailableSlotsByDate, len(doc.UnavailableSlotsByDate))
	dropped := 0

	keys := make([]string, 0, len(doc.UnavailableSlotsByDate))
	for key := range doc.UnavailableSlotsByDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := models.ParseDateKey(key); err != nil {
			log.Printf("Dropping extracted entry with bad date key %s: %v", utils.SanitizeLogString(key), err)
			dropped++
			continue
		}

		intervals := make([]models.UnavailableInterval, 0, len(doc.UnavailableSlotsByDate[key]))
		for _, interval := range doc.UnavailableSlotsByDate[key] {
			normalized, err := interval.Normalize()
			if err != nil {
				log.Printf("Dropping extracted interval %s-%s for %s: %v",
					utils.SanitizeLogString(interval.Start), utils.SanitizeLogString(interval.End), key, err)
				dropped++
				continue
			}
			intervals = append(intervals, normalized)
		}

		if len(intervals) > 0 {
			result[key] = intervals
		}
	}

	// partial drops are tolerated, but a document where nothing survived is
	// unusable output, not "the model found no times"
	if len(result) == 0 && dropped > 0 {
		return nil, &ExtractionError{Kind: KindParse, Detail: "every extracted entry was invalid"}
	}

	return result, nil
}

// trimCodeFence strips a markdown code fence some models wrap around JSON
// output even in JSON response mode.
func trimCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
