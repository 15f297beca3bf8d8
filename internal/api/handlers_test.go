package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"voyo/api_curator/internal/config"
	"voyo/api_curator/internal/curator"
	"voyo/api_curator/pkg/logging"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logging.NewLogger()

	cfg := config.Config{
		BufferCapacity:  500,
		TriggerCooldown: 30 * time.Second,
		SkipStreakLimit: 3,
		MixboardLimit:   5,
		VibeShiftWindow: 10,
		VibeShiftModes:  4,
		QueueLowWater:   5,
		MinutesPerTrack: 3.5,
		CurationTimeout: 5 * time.Second,
	}
	manager := curator.NewManager(cfg, curator.Deps{Logger: logger})

	router := gin.New()
	NewHandlers(manager, logger).Register(router.Group("/api/curator"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/curator/sessions", `{"session_id":"`+id+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

// waitForCuration polls until the initial asynchronous curation has loaded
// an output into the executor.
func waitForCuration(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, router, http.MethodGet, "/api/curator/sessions/"+id, "")
		if w.Code != http.StatusOK {
			t.Fatalf("get session: expected 200, got %d", w.Code)
		}
		var resp struct {
			Info struct {
				SessionName string `json:"session_name"`
			} `json:"info"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode session info: %v", err)
		}
		if resp.Info.SessionName != "" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("curation did not complete in time")
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")

	// Duplicate creation conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/curator/sessions", `{"session_id":"s1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/curator/sessions/s1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/api/curator/sessions/s1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", w.Code)
	}
}

func TestCreateSessionGeneratesID(t *testing.T) {
	router := newTestRouter()
	w := doJSON(t, router, http.MethodPost, "/api/curator/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.SessionID == "" {
		t.Fatalf("expected generated session id, got %s", w.Body.String())
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	router := newTestRouter()
	for _, path := range []string{
		"/api/curator/sessions/nope",
		"/api/curator/sessions/nope/next-track",
		"/api/curator/sessions/nope/learning",
	} {
		if w := doJSON(t, router, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestInitialCurationServesTracks(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")
	waitForCuration(t, router, "s1")

	w := doJSON(t, router, http.MethodGet, "/api/curator/sessions/s1/next-track", "")
	if w.Code != http.StatusOK {
		t.Fatalf("next-track: expected 200, got %d", w.Code)
	}
	var served struct {
		Source  string `json:"source"`
		Session string `json:"session"`
		Track   struct {
			ID string `json:"id"`
		} `json:"track"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &served); err != nil {
		t.Fatalf("decode served track: %v", err)
	}
	if served.Source != "main" || served.Track.ID == "" {
		t.Fatalf("unexpected served track: %s", w.Body.String())
	}
}

func TestBeltsRotateAfterCuration(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")
	waitForCuration(t, router, "s1")

	for _, path := range []string{
		"/api/curator/sessions/s1/belts/hot",
		"/api/curator/sessions/s1/belts/discovery",
	} {
		if w := doJSON(t, router, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestIngestSignal(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")

	w := doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/signals",
		`{"type":"track_skipped","payload":{"track_id":"t1","completion_rate":12}}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("signal: expected 202, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/signals",
		`{"type":"telepathy","payload":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown type: expected 400, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/signals", `{"payload":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing type: expected 400, got %d", w.Code)
	}
}

func TestSignalWithoutPayloadAccepted(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")

	w := doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/signals",
		`{"type":"app_foregrounded"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestManualAndPoolEmptyTriggers(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")

	if w := doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/curate", ""); w.Code != http.StatusAccepted {
		t.Fatalf("curate: expected 202, got %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/pool-empty", ""); w.Code != http.StatusAccepted {
		t.Fatalf("pool-empty: expected 202, got %d", w.Code)
	}
}

func TestLearningAndQueriesAfterFallback(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")
	waitForCuration(t, router, "s1")

	if w := doJSON(t, router, http.MethodGet, "/api/curator/sessions/s1/learning", ""); w.Code != http.StatusOK {
		t.Fatalf("learning: expected 200, got %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/curator/sessions/s1/discovery-queries", "")
	if w.Code != http.StatusOK {
		t.Fatalf("queries: expected 200, got %d", w.Code)
	}
	var resp struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Queries) == 0 {
		t.Fatalf("expected fallback discovery queries, got %s", w.Body.String())
	}
}

func TestResetRestartsQueue(t *testing.T) {
	router := newTestRouter()
	createSession(t, router, "s1")
	waitForCuration(t, router, "s1")

	first := doJSON(t, router, http.MethodGet, "/api/curator/sessions/s1/next-track", "")
	if first.Code != http.StatusOK {
		t.Fatalf("next-track: expected 200, got %d", first.Code)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/curator/sessions/s1/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}

	again := doJSON(t, router, http.MethodGet, "/api/curator/sessions/s1/next-track", "")
	if again.Code != http.StatusOK {
		t.Fatalf("next-track after reset: expected 200, got %d", again.Code)
	}
	if first.Body.String() != again.Body.String() {
		t.Fatalf("reset should restart the queue: %s vs %s", first.Body.String(), again.Body.String())
	}
}
