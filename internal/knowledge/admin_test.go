package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"voyo/api_curator/pkg/logging"
)

type stubEmbeddingClient struct {
	vector []float32
	err    error
}

func (s *stubEmbeddingClient) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = s.vector
	}
	return out, nil
}

func newAdminRouter(t *testing.T, embedder *Embedder) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	router := gin.New()
	NewAdminHandlers(NewStore(db), embedder, logging.NewLogger()).Register(router.Group("/"))
	return router, mock
}

func TestSearchByVibeRoute(t *testing.T) {
	embedder := NewEmbedder(&stubEmbeddingClient{vector: []float32{0.1, 0.2}})
	router, mock := newAdminRouter(t, embedder)

	rows := sqlmock.NewRows([]string{"id", "title", "artist", "mood", "energy", "similarity"}).
		AddRow("k1", "Water", "Tyla", "chill", 0.6, 0.93)
	mock.ExpectQuery(`ORDER BY embedding <=> \$1`).WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/knowledge?vibe=rainy+lagos+night", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Vibe   string  `json:"vibe"`
		Tracks []Track `json:"tracks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tracks) != 1 || resp.Tracks[0].ID != "k1" || resp.Tracks[0].Similarity != 0.93 {
		t.Fatalf("unexpected tracks: %+v", resp.Tracks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchByVibeRouteRequiresVibe(t *testing.T) {
	embedder := NewEmbedder(&stubEmbeddingClient{vector: []float32{0.1}})
	router, _ := newAdminRouter(t, embedder)

	req := httptest.NewRequest(http.MethodGet, "/knowledge", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSearchByVibeRouteWithoutEmbedder(t *testing.T) {
	router, _ := newAdminRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/knowledge?vibe=slow+burn", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestListTracksRouteStillServesMood(t *testing.T) {
	router, mock := newAdminRouter(t, nil)

	rows := sqlmock.NewRows([]string{"id", "title", "artist", "mood", "energy"}).
		AddRow("k1", "Organise", "Asake", "party", 0.92)
	mock.ExpectQuery(`FROM voyo\.track_knowledge\s+WHERE mood = \$1`).
		WithArgs("party", 500).
		WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/party", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
