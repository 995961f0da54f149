package booking

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"admarket/internal/logger"
	"admarket/internal/middleware"
	"admarket/internal/pkg/params"
	"admarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	log      *logger.Logger
	pageSize int
}

func NewHandler(service *Service, log *logger.Logger, pageSize int) *Handler {
	return &Handler{service: service, log: log, pageSize: pageSize}
}

// RegisterPublicRoutes mounts the read-only calendar.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/calendar", h.Calendar)
}

// RegisterRoutes mounts the routes that need an authenticated requester.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings", h.ListMine)
	rg.GET("/bookings/my-statistics", h.MyStatistics)
	rg.GET("/bookings/:id", h.Get)
	rg.POST("/bookings/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), middleware.Requester(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), middleware.Requester(c), id, req.Reason)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), middleware.Requester(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": NewBookingResponse(b)})
}

func (h *Handler) ListMine(c *gin.Context) {
	page, limit := params.Page(c, h.pageSize)

	items, total, err := h.service.ListMine(c.Request.Context(), middleware.Requester(c), c.Query("status"), page, limit)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Paginated(c, NewBookingResponses(items), total, page, limit)
}

func (h *Handler) MyStatistics(c *gin.Context) {
	stats, err := h.service.MyStatistics(c.Request.Context(), middleware.Requester(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Calendar handles GET /bookings/calendar?placement_id=&start_date=&end_date=.
func (h *Handler) Calendar(c *gin.Context) {
	q := CalendarQuery{StartDate: c.Query("start_date"), EndDate: c.Query("end_date")}
	if raw := c.Query("placement_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid placement_id")
			return
		}
		q.PlacementID = id
	}

	entries, err := h.service.Calendar(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": NewCalendarResponse(entries)})
}
