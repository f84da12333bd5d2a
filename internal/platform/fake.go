package platform

import (
	"context"
	"sync"
)

// Fake is an in-memory Provider useful for tests.
// It is not intended for production use.
type Fake struct {
	mu sync.Mutex

	invites map[string][]Invite
	vanity  map[string]string
	audit   map[string][]AuditEntry // keyed by communityID+"/"+kind

	// Err, when set, is returned by every call. Use it to simulate outages
	// and permission failures (ErrPermissionDenied).
	Err error

	listInviteCalls int
	auditCalls      int
}

func NewFake() *Fake {
	return &Fake{
		invites: map[string][]Invite{},
		vanity:  map[string]string{},
		audit:   map[string][]AuditEntry{},
	}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) HealthCheck(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err
}

func (f *Fake) SetInvites(communityID string, invites []Invite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites[communityID] = append([]Invite(nil), invites...)
}

func (f *Fake) SetVanity(communityID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vanity[communityID] = code
}

func (f *Fake) SetAuditPage(communityID string, kind ActionKind, entries []AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit[communityID+"/"+string(kind)] = append([]AuditEntry(nil), entries...)
}

func (f *Fake) ListInvites(ctx context.Context, communityID string) ([]Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listInviteCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]Invite(nil), f.invites[communityID]...), nil
}

func (f *Fake) VanityCode(ctx context.Context, communityID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.vanity[communityID], nil
}

func (f *Fake) AuditPage(ctx context.Context, req AuditPageRequest) ([]AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	entries := f.audit[req.CommunityID+"/"+string(req.Kind)]
	limit := req.Limit
	if limit <= 0 {
		limit = defaultAuditPageLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]AuditEntry(nil), entries...), nil
}

func (f *Fake) ResolveChannel(ctx context.Context, channelID string) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return Channel{}, f.Err
	}
	return Channel{ID: channelID}, nil
}

// ListInviteCalls reports how many times ListInvites was invoked.
func (f *Fake) ListInviteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listInviteCalls
}

// AuditCalls reports how many times AuditPage was invoked.
func (f *Fake) AuditCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auditCalls
}
