package api

import (
	"net/http"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ScheduleHandler handles saved schedules
type ScheduleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(services *service.Services, log zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		services: services,
		log:      log.With().Str("handler", "schedule").Logger(),
	}
}

type snapshotRequest struct {
	Name string `json:"name"`
}

// List handles GET /v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.services.Schedule.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": schedules, "count": len(schedules)})
}

// Snapshot handles POST /v1/schedules. The name is optional.
func (h *ScheduleHandler) Snapshot(c *gin.Context) {
	var req snapshotRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid JSON body")
			return
		}
	}

	schedule, err := h.services.Schedule.Snapshot(c.Request.Context(), actorID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// Get handles GET /v1/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	schedule, err := h.services.Schedule.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// Restore handles POST /v1/schedules/:id/restore
func (h *ScheduleHandler) Restore(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	row, err := h.services.Schedule.Restore(c.Request.Context(), actorID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
