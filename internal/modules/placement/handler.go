package placement

import (
	"net/http"

	"admarket/internal/logger"
	"admarket/internal/middleware"
	"admarket/internal/pkg/params"
	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service      *Service
	availability AvailabilityChecker
	log          *logger.Logger
	pageSize     int
}

func NewHandler(service *Service, availability AvailabilityChecker, log *logger.Logger, pageSize int) *Handler {
	return &Handler{service: service, availability: availability, log: log, pageSize: pageSize}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/ad-placements", h.List)
	rg.GET("/ad-placements/:id", h.Get)
	rg.GET("/ad-placements/:id/availability", h.Availability)
}

// RegisterStaffRoutes expects rg to already run JWTAuth and StaffOnly.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/ad-placements", h.Create)
	rg.PUT("/ad-placements/:id", h.Update)
}

func (h *Handler) List(c *gin.Context) {
	page, limit := params.Page(c, h.pageSize)
	activeOnly := c.DefaultQuery("active", "true") != "false"

	items, total, err := h.service.List(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	out := make([]PlacementResponse, 0, len(items))
	for i := range items {
		out = append(out, NewPlacementResponse(&items[i]))
	}
	response.Paginated(c, out, total, page, limit)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"placement": NewPlacementResponse(p)})
}

// Availability handles GET /ad-placements/:id/availability?start_date=&end_date=.
func (h *Handler) Availability(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	a, err := h.availability.CheckAvailability(c.Request.Context(), id, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.Requester(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"placement": NewPlacementResponse(p)})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	var req UpdatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.Requester(c), id, req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"placement": NewPlacementResponse(p)})
}

