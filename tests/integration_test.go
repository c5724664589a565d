package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannaza/mannaza/internal/api"
	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/extract"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/repository/memory"
	"github.com/mannaza/mannaza/internal/service"
	"github.com/mannaza/mannaza/internal/web"
)

// TestEventCallback captures room update callbacks
type TestEventCallback struct {
	mu     sync.RWMutex
	events []*models.Room
}

func (t *TestEventCallback) OnRoomUpdate(room *models.Room) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, room)
}

func (t *TestEventCallback) GetEvents() []*models.Room {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := make([]*models.Room, len(t.events))
	copy(events, t.events)
	return events
}

func (t *TestEventCallback) WaitForEvents(count int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		t.mu.RLock()
		current := len(t.events)
		t.mu.RUnlock()
		if current >= count {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// scriptedExtractor maps message text to canned extraction results, standing
// in for the real chat-completions backend
type scriptedExtractor struct {
	mu      sync.Mutex
	replies map[string]models.UnavailableSlotsByDate
}

func (s *scriptedExtractor) Extract(ctx context.Context, req extract.Request) (models.UnavailableSlotsByDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reply, ok := s.replies[req.Message]; ok {
		return reply, nil
	}
	return models.UnavailableSlotsByDate{}, nil
}

// IntegrationTestSuite contains the complete application setup for integration testing
type IntegrationTestSuite struct {
	repo        *memory.Repository
	roomService *service.RoomService
	extractor   *scriptedExtractor
	hub         *web.SSEHub
	server      *httptest.Server
	callback    *TestEventCallback
}

func setupIntegrationTest(t *testing.T) *IntegrationTestSuite {
	repo := memory.NewRepository()

	extractor := &scriptedExtractor{replies: make(map[string]models.UnavailableSlotsByDate)}

	cfg := config.ServiceConfig{
		FilterToPeriod:     true,
		MinMessageInterval: time.Second,
		BurstLimit:         3,
		BurstWindow:        5 * time.Second,
		LockoutDuration:    30 * time.Second,
	}
	roomService := service.NewRoomService(repo, extractor, cfg)
	roomService.SetClock(func() time.Time {
		return time.Date(2024, time.June, 1, 9, 0, 0, 0, time.Local)
	})

	callback := &TestEventCallback{}
	roomService.RegisterUpdateCallback(callback.OnRoomUpdate)

	hub := web.NewSSEHub()
	roomService.RegisterUpdateCallback(hub.NotifyRoomUpdate)

	mux := api.SetupRoutes(roomService)
	hub.SetupRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		hub.Shutdown()
	})

	return &IntegrationTestSuite{
		repo:        repo,
		roomService: roomService,
		extractor:   extractor,
		hub:         hub,
		server:      server,
		callback:    callback,
	}
}

func (s *IntegrationTestSuite) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (s *IntegrationTestSuite) createRoom(t *testing.T) models.Room {
	t.Helper()
	resp := s.postJSON(t, "/api/rooms", map[string]any{
		"title":          "6월 모임",
		"time_frame":     "month",
		"specific_month": 6,
		"member_count":   6,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room models.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	return room
}

func TestMessageToAvailabilityFlow(t *testing.T) {
	suite := setupIntegrationTest(t)
	room := suite.createRoom(t)

	suite.extractor.replies["6월 15일 오후 2시부터 4시까지 안돼요"] = models.UnavailableSlotsByDate{
		"20240615": {{Start: "14:00", End: "16:00"}},
	}

	resp := suite.postJSON(t, fmt.Sprintf("/api/rooms/%s/messages", room.ID), map[string]string{
		"sender_id": "participant1",
		"message":   "6월 15일 오후 2시부터 4시까지 안돼요",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result service.MessageResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, []string{"20240615"}, result.AppliedDates)

	// the update was broadcast
	require.True(t, suite.callback.WaitForEvents(1, time.Second))
	events := suite.callback.GetEvents()
	assert.Equal(t, room.ID, events[0].ID)

	// availability reflects the extracted interval
	availResp, err := http.Get(fmt.Sprintf("%s/api/rooms/%s/availability?date=20240615&time=15:00", suite.server.URL, room.ID))
	require.NoError(t, err)
	defer availResp.Body.Close()
	require.Equal(t, http.StatusOK, availResp.StatusCode)

	var avail struct {
		AvailableHours []int `json:"available_hours"`
		IsAvailable    *bool `json:"is_available"`
	}
	require.NoError(t, json.NewDecoder(availResp.Body).Decode(&avail))
	require.NotNil(t, avail.IsAvailable)
	assert.False(t, *avail.IsAvailable)
	assert.NotContains(t, avail.AvailableHours, 14)
	assert.Contains(t, avail.AvailableHours, 16)
}

func TestCorrectionReplacesEarlierReport(t *testing.T) {
	suite := setupIntegrationTest(t)
	room := suite.createRoom(t)

	suite.extractor.replies["15일 하루종일 안돼요"] = models.UnavailableSlotsByDate{
		"20240615": {{Start: "00:00", End: "24:00"}},
	}
	suite.extractor.replies["다시 보니 15일은 저녁만 안돼요"] = models.UnavailableSlotsByDate{
		"20240615": {{Start: "18:00", End: "22:00"}},
	}

	resp := suite.postJSON(t, fmt.Sprintf("/api/rooms/%s/messages", room.ID), map[string]string{
		"sender_id": "participant1", "message": "15일 하루종일 안돼요",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = suite.postJSON(t, fmt.Sprintf("/api/rooms/%s/messages", room.ID), map[string]string{
		"sender_id": "participant2", "message": "다시 보니 15일은 저녁만 안돼요",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the second report fully replaced the first for that date
	getResp, err := http.Get(fmt.Sprintf("%s/api/rooms/%s", suite.server.URL, room.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()

	var fetched models.Room
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	require.Len(t, fetched.UnavailableSlotsByDate["20240615"], 1)
	assert.Equal(t, "18:00", fetched.UnavailableSlotsByDate["20240615"][0].Start)
	assert.Equal(t, "22:00", fetched.UnavailableSlotsByDate["20240615"][0].End)
}

func TestStructuredSlotUpdateOverHTTP(t *testing.T) {
	suite := setupIntegrationTest(t)
	room := suite.createRoom(t)

	payload, _ := json.Marshal(map[string]any{
		"intervals": []map[string]string{{"start": "09:00", "end": "12:00"}},
	})
	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/api/rooms/%s/slots/20240620", suite.server.URL, room.ID),
		bytes.NewReader(payload))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.True(t, suite.callback.WaitForEvents(1, time.Second))

	var updated models.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Contains(t, updated.UnavailableSlotsByDate, "20240620")
}
