package knowledge

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voyo/api_curator/pkg/logging"
)

// AdminHandlers exposes operator endpoints for maintaining the mood
// knowledge base.
type AdminHandlers struct {
	store    *Store
	embedder *Embedder
	logger   logging.Logger
}

// NewAdminHandlers creates the admin handler set.
func NewAdminHandlers(store *Store, embedder *Embedder, logger logging.Logger) *AdminHandlers {
	return &AdminHandlers{store: store, embedder: embedder, logger: logger}
}

// Register mounts the admin routes on a (already authenticated) group.
// Vibe search lives on the collection as a query parameter; a static
// /knowledge/search segment would collide with the :mood parameter.
func (h *AdminHandlers) Register(group *gin.RouterGroup) {
	group.POST("/knowledge", h.UpsertTrack)
	group.GET("/knowledge", h.SearchByVibe)
	group.GET("/knowledge/:mood", h.ListTracks)
	group.DELETE("/knowledge/:id", h.DeleteTrack)
}

type upsertTrackRequest struct {
	ID     string  `json:"id"`
	Title  string  `json:"title" binding:"required"`
	Artist string  `json:"artist" binding:"required"`
	Mood   string  `json:"mood" binding:"required"`
	Energy float64 `json:"energy"`
}

// UpsertTrack inserts or updates a classified track, embedding it when an
// embedder is configured.
func (h *AdminHandlers) UpsertTrack(c *gin.Context) {
	var req upsertTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	track := Track{
		ID:     req.ID,
		Title:  req.Title,
		Artist: req.Artist,
		Mood:   req.Mood,
		Energy: req.Energy,
	}

	if h.embedder != nil {
		embedding, err := h.embedder.EmbedTrack(c.Request.Context(), track)
		if err != nil {
			// Store the track anyway; vibe search just won't find it.
			h.logger.WithError(err).WithField("track_id", track.ID).Warn("Failed to embed track")
		} else {
			track.Embedding = embedding
		}
	}

	if err := h.store.Upsert(c.Request.Context(), track); err != nil {
		h.logger.WithError(err).Error("Failed to upsert knowledge track")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": track.ID})
}

// SearchByVibe embeds a free-text vibe query and returns the closest tracks
// by cosine similarity.
func (h *AdminHandlers) SearchByVibe(c *gin.Context) {
	vibe := c.Query("vibe")
	if vibe == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vibe query parameter is required"})
		return
	}
	if h.embedder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vibe search requires an embedding client"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	embedding, err := h.embedder.EmbedQuery(c.Request.Context(), vibe)
	if err != nil {
		h.logger.WithError(err).WithField("vibe", vibe).Error("Failed to embed vibe query")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to embed query"})
		return
	}

	tracks, err := h.store.SearchByVibe(c.Request.Context(), embedding, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to search knowledge tracks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search tracks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vibe": vibe, "tracks": tracks})
}

// ListTracks returns all classified tracks for a mood.
func (h *AdminHandlers) ListTracks(c *gin.Context) {
	mood := c.Param("mood")
	tracks, err := h.store.ListByMood(c.Request.Context(), mood)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list knowledge tracks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tracks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mood": mood, "tracks": tracks})
}

// DeleteTrack removes a classified track.
func (h *AdminHandlers) DeleteTrack(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.logger.WithError(err).Error("Failed to delete knowledge track")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete track"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
