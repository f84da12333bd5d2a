package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"communitylog/internal/events"
	"communitylog/internal/settings"

	"github.com/gin-gonic/gin"
)

func TestGetSettings_KnownCommunity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := settings.NewMemoryStore()
	store.Put(settings.Defaults("c1"))
	h := Handlers{Settings: settings.NewCache(store, time.Minute)}

	r := gin.New()
	r.GET("/v1/settings/:community_id", h.GetSettings)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/settings/c1", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"community_id":"c1"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/settings/missing", nil))
	if w.Code != 404 {
		t.Fatalf("expected 404 for unknown community, got %d", w.Code)
	}
}

func TestIngestEvent_QueuesAndBackpressures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	queue := make(chan events.Event, 1)
	h := Handlers{Ingest: queue}

	r := gin.New()
	r.POST("/v1/events", h.IngestEvent)

	body := `{"kind":"member_join","community_id":"c1","user_id":"u1"}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body)))
	if w.Code != 202 {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	// Queue full: transport must redeliver.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body)))
	if w.Code != 503 {
		t.Fatalf("expected 503 on full queue, got %d", w.Code)
	}

	ev := <-queue
	if ev.Kind != events.KindMemberJoin || ev.CommunityID != "c1" {
		t.Fatalf("unexpected queued event: %+v", ev)
	}
	if ev.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at defaulted")
	}
}

func TestIngestEvent_RejectsMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := Handlers{Ingest: make(chan events.Event, 1)}
	r := gin.New()
	r.POST("/v1/events", h.IngestEvent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(`{"kind":"member_join"}`)))
	if w.Code != 400 {
		t.Fatalf("expected 400 for event without community, got %d", w.Code)
	}
}
