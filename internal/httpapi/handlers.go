package httpapi

import (
	"net/http"
	"time"

	"communitylog/internal/auth"
	"communitylog/internal/events"
	"communitylog/internal/journal"
	"communitylog/internal/settings"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Settings *settings.Cache
	Journal  *journal.Service

	// Ingest feeds the event router. The HTTP surface is one transport
	// collaborator among possibly several; it never blocks on a full queue.
	Ingest chan<- events.Event
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	CommunityID string `json:"community_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.CommunityID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, community_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.CommunityID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Settings (read contract only; mutation belongs to the admin surface) ---

func (h Handlers) GetSettings(c *gin.Context) {
	if h.Settings == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "settings not configured"})
		return
	}
	communityID := c.Param("community_id")
	if communityID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "community_id required"})
		return
	}
	rec, ok := h.Settings.Get(c.Request.Context(), communityID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no settings for community"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// InvalidateSettings drops the cached entry so the next read refetches.
// Called by the admin surface after it mutates a community's record.
func (h Handlers) InvalidateSettings(c *gin.Context) {
	if h.Settings == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "settings not configured"})
		return
	}
	communityID := c.Param("community_id")
	if communityID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "community_id required"})
		return
	}
	h.Settings.Invalidate(communityID)
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

// --- Journal ---

func (h Handlers) ListJournal(c *gin.Context) {
	if h.Journal == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "journal not configured"})
		return
	}
	communityID := c.Param("community_id")
	if communityID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "community_id required"})
		return
	}
	entries, err := h.Journal.ListRecent(c.Request.Context(), communityID, 50)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "journal lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// --- Event ingest ---

// IngestEvent accepts one decoded platform event and queues it for the
// router. 202 means queued, not processed; 503 means the queue is full and
// the transport should redeliver.
func (h Handlers) IngestEvent(c *gin.Context) {
	if h.Ingest == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingest not configured"})
		return
	}
	var ev events.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !ev.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	select {
	case h.Ingest <- ev:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	default:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event queue full"})
	}
}
