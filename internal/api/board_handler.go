package api

import (
	"net/http"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/metrics"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BoardHandler serves the singleton board row
type BoardHandler struct {
	services *service.Services
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(services *service.Services, m *metrics.Metrics, log zerolog.Logger) *BoardHandler {
	return &BoardHandler{
		services: services,
		metrics:  m,
		log:      log.With().Str("handler", "board").Logger(),
	}
}

// Get handles GET /v1/board. A board that was never saved is a 404 with
// code "not_found".
func (h *BoardHandler) Get(c *gin.Context) {
	row, err := h.services.Board.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Push handles PUT /v1/board. The body carries the full document and the
// version it was based on; a stale base_version gets 409.
func (h *BoardHandler) Push(c *gin.Context) {
	var req models.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if len(req.BoardData) == 0 {
		badRequest(c, "board_data is required")
		return
	}

	row, err := h.services.Board.Push(c.Request.Context(), actorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
