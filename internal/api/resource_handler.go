package api

import (
	"net/http"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ResourceHandler handles the crew, truck, trailer and equipment pools
type ResourceHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewResourceHandler creates a new ResourceHandler
func NewResourceHandler(services *service.Services, log zerolog.Logger) *ResourceHandler {
	return &ResourceHandler{
		services: services,
		log:      log.With().Str("handler", "resource").Logger(),
	}
}

type createResourceRequest struct {
	Name string `json:"name"`
}

func resourceType(c *gin.Context) (models.ResourceType, bool) {
	t, ok := models.ParseResourceType(c.Param("type"))
	if !ok {
		badRequest(c, "type must be one of: crews, trucks, trailers, equipment")
	}
	return t, ok
}

// List handles GET /v1/resources/:type
func (h *ResourceHandler) List(c *gin.Context) {
	t, ok := resourceType(c)
	if !ok {
		return
	}
	items, err := h.services.Resource.List(c.Request.Context(), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Create handles POST /v1/resources/:type
func (h *ResourceHandler) Create(c *gin.Context) {
	t, ok := resourceType(c)
	if !ok {
		return
	}
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	res, err := h.services.Resource.Create(c.Request.Context(), actorID(c), t, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
