package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"communitylog/internal/config"
)

const headerAPIKey = "X-Api-Key"

// RemoteStore implements the remote settings strategy: an authenticated
// lookup against a configuration service.
//
// Any non-200 response, transport error, or missing credential maps to
// ErrNotFound so the cache treats the community as having no configuration.
// Nothing is cached on that path.
type RemoteStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteStore(cfg config.SettingsConfig) *RemoteStore {
	return &RemoteStore{
		baseURL:    cfg.RemoteBaseURL,
		apiKey:     cfg.RemoteAPIKey,
		httpClient: &http.Client{Timeout: 3 * time.Second},
	}
}

func (s *RemoteStore) Fetch(ctx context.Context, communityID string) (Record, error) {
	if communityID == "" {
		return Record{}, errors.New("settings: community_id required")
	}
	if s.apiKey == "" {
		// No credential configured: the remote surface is unreachable by
		// contract, not an outage. Absent, never an error to the caller.
		return Record{}, ErrNotFound
	}

	u := fmt.Sprintf("%s/settings/%s", s.baseURL, url.PathEscape(communityID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set(headerAPIKey, s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Record{}, ErrNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, ErrNotFound
	}

	// Start from defaults so toggles absent from the payload stay enabled.
	r := Defaults(communityID)
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Record{}, ErrNotFound
	}
	r.CommunityID = communityID
	return r, nil
}
