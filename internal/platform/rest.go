package platform

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

const defaultAuditPageLimit = 10

// RESTClient talks to the community platform's REST API.
//
// Every call carries its own timeout; a timed-out call surfaces as a plain
// error and is handled by callers exactly like any other provider failure.
type RESTClient struct {
	baseURL     string
	token       string
	callTimeout time.Duration
	httpClient  *http.Client
}

func NewRESTClient(cfg config.PlatformConfig) *RESTClient {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RESTClient{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		callTimeout: timeout,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) Name() string { return "rest" }

func (c *RESTClient) HealthCheck(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.getJSON(ctx, "/health", nil, &out)
}

func (c *RESTClient) ListInvites(ctx context.Context, communityID string) ([]Invite, error) {
	if communityID == "" {
		return nil, fmt.Errorf("platform: community_id required")
	}
	var out []Invite
	path := fmt.Sprintf("/communities/%s/invites", url.PathEscape(communityID))
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RESTClient) VanityCode(ctx context.Context, communityID string) (string, error) {
	if communityID == "" {
		return "", fmt.Errorf("platform: community_id required")
	}
	var out struct {
		Code string `json:"code"`
	}
	path := fmt.Sprintf("/communities/%s/vanity-url", url.PathEscape(communityID))
	err := c.getJSON(ctx, path, nil, &out)
	if errors.Is(err, ErrNotFound) {
		// No vanity URL configured is a normal state, not a failure.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return out.Code, nil
}

func (c *RESTClient) AuditPage(ctx context.Context, req AuditPageRequest) ([]AuditEntry, error) {
	if req.CommunityID == "" {
		return nil, fmt.Errorf("platform: community_id required")
	}
	if req.Kind == "" {
		return nil, fmt.Errorf("platform: action kind required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultAuditPageLimit
	}

	q := url.Values{}
	q.Set("action_kind", string(req.Kind))
	q.Set("limit", fmt.Sprintf("%d", limit))

	var out struct {
		Entries []AuditEntry `json:"entries"`
	}
	path := fmt.Sprintf("/communities/%s/audit-log", url.PathEscape(req.CommunityID))
	if err := c.getJSON(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *RESTClient) ResolveChannel(ctx context.Context, channelID string) (Channel, error) {
	if channelID == "" {
		return Channel{}, fmt.Errorf("platform: channel_id required")
	}
	var out Channel
	path := fmt.Sprintf("/channels/%s", url.PathEscape(channelID))
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return Channel{}, err
	}
	return out, nil
}

func (c *RESTClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("platform: unexpected status %d for %s", resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("platform: decode %s: %w", path, err)
	}
	return nil
}
