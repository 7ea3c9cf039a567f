package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/service"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
	"github.com/nikhil123421/theGlobalMixtape/pkg/response"
)

// Handler handles the pull-mode HTTP API.
type Handler struct {
	radioService service.RadioService
}

// NewHandler creates a new HTTP handler.
func NewHandler(radioService service.RadioService) *Handler {
	return &Handler{radioService: radioService}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/tracks", h.AddTrack)
		api.POST("/next", h.ReportEnded)
		api.POST("/play", h.StartPlayback)
		api.GET("/sync", h.GetSnapshot)
	}
}

// AddTrack submits a URL to the queue.
func (h *Handler) AddTrack(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.AddTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind add track request")
		response.BadRequest(c, "url is required")
		return
	}

	track, err := h.radioService.AddTrack(ctx, req.URL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTrack) {
			response.BadRequest(c, "not a playable video url")
			return
		}
		l.Error().Err(err).Msg("failed to add track")
		response.InternalError(c, "failed to add track")
		return
	}

	response.Created(c, track)
}

// ReportEnded receives an end-of-track signal. Stale signals are a
// normal acknowledged outcome, not an error.
func (h *Handler) ReportEnded(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ReportEndedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind ended request")
		response.BadRequest(c, "ended_track_id is required")
		return
	}

	advanced, err := h.radioService.ReportEnded(ctx, req.EndedTrackID)
	if err != nil {
		if errors.Is(err, service.ErrMalformedSignal) {
			response.BadRequest(c, "ended_track_id is required")
			return
		}
		l.Error().Err(err).Msg("failed to process ended signal")
		response.InternalError(c, "failed to process ended signal")
		return
	}

	response.Success(c, domain.AdvanceResult{Advanced: advanced})
}

// StartPlayback starts an idle session.
func (h *Handler) StartPlayback(c *gin.Context) {
	ctx := c.Request.Context()

	started, err := h.radioService.StartPlayback(ctx)
	if err != nil {
		logger := log.Ctx(ctx)
		logger.Error().Err(err).Msg("failed to start playback")
		response.InternalError(c, "failed to start playback")
		return
	}

	response.Success(c, domain.StartResult{Started: started})
}

// GetSnapshot is the pull transport: one fresh snapshot per request.
// The body is the bare canonical Snapshot, byte-compatible with the
// sync_event payload minus the type tag, so pull and push clients run
// the same reconciler.
func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.radioService.Snapshot())
}
