package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"communitylog/internal/config"
)

func newRemoteStore(t *testing.T, handler http.Handler, apiKey string) *RemoteStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemoteStore(config.SettingsConfig{RemoteBaseURL: srv.URL, RemoteAPIKey: apiKey})
}

func TestRemoteStore_FetchParsesPartialPayload(t *testing.T) {
	s := newRemoteStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settings/comm-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "key-1" {
			t.Errorf("unexpected api key %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		// Only two fields set; every omitted toggle must stay enabled.
		_, _ = w.Write([]byte(`{"log_joins":false,"log_channel_id":"12345678901234567"}`))
	}), "key-1")

	r, err := s.Fetch(context.Background(), "comm-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.LogJoins {
		t.Fatalf("expected log_joins disabled")
	}
	if !r.LogBans || !r.AttributeInvites {
		t.Fatalf("expected omitted toggles to default to enabled: %+v", r)
	}
	if r.LogChannelID != "12345678901234567" {
		t.Fatalf("unexpected channel: %q", r.LogChannelID)
	}
}

func TestRemoteStore_NonOKIsNotFound(t *testing.T) {
	s := newRemoteStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), "key-1")

	if _, err := s.Fetch(context.Background(), "comm-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoteStore_MissingCredentialIsNotFound(t *testing.T) {
	s := newRemoteStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected without a credential")
	}), "")

	if _, err := s.Fetch(context.Background(), "comm-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
