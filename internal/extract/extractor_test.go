package extract_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/extract"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionServer stubs the chat-completions endpoint, returning content as
// the single choice's message body.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func testClient(baseURL string) *extract.Client {
	return extract.NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "deepseek-chat",
		Timeout: 2 * time.Second,
	})
}

func testRequest() extract.Request {
	return extract.Request{
		Message:    "6월 15일 오후 2시부터 4시까지 회의가 있어요",
		Now:        time.Date(2024, time.June, 10, 9, 0, 0, 0, time.Local),
		TargetDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.Local),
		Existing:   models.UnavailableSlotsByDate{},
	}
}

func TestExtractSuccess(t *testing.T) {
	content := `{"unavailableSlotsByDate": {"20240615": [{"start": "14:00", "end": "16:00"}]}}`
	server := completionServer(t, content)
	defer server.Close()

	slots, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)

	require.Contains(t, slots, "20240615")
	assert.Equal(t, []models.UnavailableInterval{{Start: "14:00", End: "16:00"}}, slots["20240615"])
}

func TestExtractNormalizesMidnight(t *testing.T) {
	content := `{"unavailableSlotsByDate": {"20240615": [{"start": "22:00", "end": "24:00"}]}}`
	server := completionServer(t, content)
	defer server.Close()

	slots, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "23:59", slots["20240615"][0].End)
}

func TestExtractDropsInvalidEntriesIndividually(t *testing.T) {
	content := `{"unavailableSlotsByDate": {
		"20240615": [{"start": "16:00", "end": "14:00"}, {"start": "18:00", "end": "20:00"}],
		"20240616": [{"start": "bogus", "end": "10:00"}],
		"not-a-date": [{"start": "09:00", "end": "10:00"}]
	}}`
	server := completionServer(t, content)
	defer server.Close()

	slots, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Len(t, slots, 1, "only the date with a valid interval survives")
	assert.Equal(t, []models.UnavailableInterval{{Start: "18:00", End: "20:00"}}, slots["20240615"])
}

func TestExtractAllEntriesInvalidIsParseError(t *testing.T) {
	content := `{"unavailableSlotsByDate": {
		"20240615": [{"start": "16:00", "end": "14:00"}],
		"not-a-date": [{"start": "09:00", "end": "10:00"}]
	}}`
	server := completionServer(t, content)
	defer server.Close()

	_, err := testClient(server.URL).Extract(context.Background(), testRequest())

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.KindParse, extractionErr.Kind,
		"a document where nothing survived validation is unusable, not empty")
}

func TestExtractToleratesCodeFence(t *testing.T) {
	content := "```json\n{\"unavailableSlotsByDate\": {\"20240615\": [{\"start\": \"09:00\", \"end\": \"10:00\"}]}}\n```"
	server := completionServer(t, content)
	defer server.Close()

	slots, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Contains(t, slots, "20240615")
}

func TestExtractEmptyMappingIsNotAnError(t *testing.T) {
	server := completionServer(t, `{"unavailableSlotsByDate": {}}`)
	defer server.Close()

	slots, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestExtractSchemaViolationIsParseError(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown field", `{"foo": "bar"}`},
		{"missing field", `{}`},
		{"wrong type", `{"unavailableSlotsByDate": "tomorrow"}`},
		{"not JSON", `tomorrow afternoon works`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := completionServer(t, tc.content)
			defer server.Close()

			_, err := testClient(server.URL).Extract(context.Background(), testRequest())

			var extractionErr *extract.ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, extract.KindParse, extractionErr.Kind)
		})
	}
}

func TestExtractAPIErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Extract(context.Background(), testRequest())

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.KindAPI, extractionErr.Kind)
	assert.Contains(t, extractionErr.Detail, "429")
}

func TestExtractNetworkErrorKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := testClient(server.URL).Extract(context.Background(), testRequest())

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.KindNetwork, extractionErr.Kind)
}

func TestExtractTimeoutIsNetworkKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise Close hangs on this handler
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := extract.NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "deepseek-chat",
		Timeout: 50 * time.Millisecond,
	})

	_, err := client.Extract(context.Background(), testRequest())

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.KindNetwork, extractionErr.Kind)
}

func TestExtractCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := testClient(server.URL).Extract(ctx, testRequest())

	var extractionErr *extract.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extract.KindNetwork, extractionErr.Kind)
	assert.True(t, errors.Is(err, context.Canceled) || extractionErr.Err != nil)
}

func TestExtractPromptCarriesContext(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		prompt = body.Messages[0].Content

		fmt.Fprint(w, `{"choices": [{"message": {"content": "{\"unavailableSlotsByDate\": {}}"}}]}`)
	}))
	defer server.Close()

	req := testRequest()
	req.Existing = models.UnavailableSlotsByDate{
		"20240614": {{Start: "10:00", End: "12:00"}},
	}

	_, err := testClient(server.URL).Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, prompt, req.Message)
	assert.Contains(t, prompt, "2024-06-10", "current date")
	assert.Contains(t, prompt, "2024-06-01", "target date")
	assert.Contains(t, prompt, "20240614: 10:00-12:00", "existing slots summary")
}

func TestExtractEmptyExistingSlotsSummary(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[0].Content
		fmt.Fprint(w, `{"choices": [{"message": {"content": "{\"unavailableSlotsByDate\": {}}"}}]}`)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Contains(t, prompt, "none yet")
}
