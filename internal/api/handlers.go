package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voyo/api_curator/internal/curator"
	"voyo/api_curator/internal/signals"
	"voyo/api_curator/pkg/logging"
)

// Handlers exposes the curator session API.
type Handlers struct {
	manager *curator.Manager
	logger  logging.Logger
}

// NewHandlers creates the session handler set.
func NewHandlers(manager *curator.Manager, logger logging.Logger) *Handlers {
	return &Handlers{manager: manager, logger: logger}
}

// Register mounts the session routes.
func (h *Handlers) Register(group *gin.RouterGroup) {
	group.POST("/sessions", h.CreateSession)
	group.GET("/sessions/:id", h.GetSession)
	group.DELETE("/sessions/:id", h.DeleteSession)

	group.POST("/sessions/:id/signals", h.IngestSignal)
	group.POST("/sessions/:id/curate", h.TriggerCuration)
	group.POST("/sessions/:id/pool-empty", h.SignalPoolEmpty)
	group.POST("/sessions/:id/reset", h.ResetSession)

	group.GET("/sessions/:id/next-track", h.NextTrack)
	group.GET("/sessions/:id/mix", h.NextMix)
	group.GET("/sessions/:id/belts/hot", h.NextHotTrack)
	group.GET("/sessions/:id/belts/discovery", h.NextDiscoveryTrack)
	group.GET("/sessions/:id/learning", h.Learning)
	group.GET("/sessions/:id/discovery-queries", h.DiscoveryQueries)
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

// CreateSession starts a listening session and its initial curation.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	s, err := h.manager.Create(req.SessionID)
	if err != nil {
		if errors.Is(err, curator.ErrSessionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "session already exists"})
			return
		}
		h.logger.WithError(err).Error("Failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID})
}

// GetSession returns the executor snapshot and trigger counters.
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": s.ID,
		"info":       s.Info(),
		"triggers":   s.Triggers(),
	})
}

// DeleteSession tears down a session.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.manager.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type signalRequest struct {
	Type    signals.Type    `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

// IngestSignal decodes one tagged signal and routes it into the session.
func (h *Handlers) IngestSignal(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown signal type"})
		return
	}

	payload, err := decodePayload(req.Type, req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	s.Ingest(signals.NewSignal(s.ID, req.Type, payload))
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// decodePayload unmarshals the category-specific payload for a signal type.
// A missing payload decodes to the category's zero value.
func decodePayload(t signals.Type, raw json.RawMessage) (signals.Payload, error) {
	unmarshal := func(v interface{}) error {
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, v)
	}

	switch t.Category() {
	case "playback":
		var p signals.PlaybackPayload
		return p, unmarshal(&p)
	case "reaction":
		var p signals.ReactionPayload
		return p, unmarshal(&p)
	case "mixboard":
		var p signals.MixboardPayload
		return p, unmarshal(&p)
	case "queue":
		var p signals.QueuePayload
		return p, unmarshal(&p)
	case "discovery":
		var p signals.DiscoveryPayload
		return p, unmarshal(&p)
	case "context":
		var p signals.ContextPayload
		return p, unmarshal(&p)
	case "pattern":
		var p signals.PatternPayload
		return p, unmarshal(&p)
	}
	return nil, errors.New("unknown payload category")
}

// TriggerCuration fires the manual trigger. Curation runs asynchronously.
func (h *Handlers) TriggerCuration(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.TriggerCuration()
	c.JSON(http.StatusAccepted, gin.H{"triggered": true})
}

// SignalPoolEmpty fires the pool-empty trigger.
func (h *Handlers) SignalPoolEmpty(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.SignalPoolEmpty()
	c.JSON(http.StatusAccepted, gin.H{"triggered": true})
}

// NextTrack serves the next track decision, 204 on queue exhaustion.
func (h *Handlers) NextTrack(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	served := s.NextTrack()
	if served == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, served)
}

// NextMix returns a matched DJ moment, 204 when none applies.
func (h *Handlers) NextMix(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	moment := s.NextMix()
	if moment == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, moment)
}

// NextHotTrack rotates the hot belt.
func (h *Handlers) NextHotTrack(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	track := s.NextHotTrack()
	if track == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, track)
}

// NextDiscoveryTrack rotates the discovery belt.
func (h *Handlers) NextDiscoveryTrack(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	track := s.NextDiscoveryTrack()
	if track == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, track)
}

// Learning returns the latest curation's learning block.
func (h *Handlers) Learning(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	learning := s.Learning()
	if learning == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, learning)
}

// DiscoveryQueries returns the latest curation's discovery search queries.
func (h *Handlers) DiscoveryQueries(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": s.DiscoveryQueries()})
}

// ResetSession restores the executor to the start of the loaded output.
func (h *Handlers) ResetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *Handlers) session(c *gin.Context) (*curator.Session, bool) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}
