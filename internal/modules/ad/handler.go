package ad

import (
	"context"
	"net/http"

	"admarket/internal/domain"
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

// RegisterTrackingRoutes mounts the public counters behind the given limiter.
func (h *Handler) RegisterTrackingRoutes(rg *gin.RouterGroup, limiter gin.HandlerFunc) {
	rg.POST("/ads/:id/impression", limiter, h.TrackImpression)
	rg.POST("/ads/:id/click", limiter, h.TrackClick)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ads", h.Create)
	rg.GET("/ads", h.ListMine)
	rg.GET("/ads/:id", h.Get)
	rg.PUT("/ads/:id", h.Update)
	rg.POST("/ads/:id/submit", h.statusAction(h.service.Submit))
	rg.POST("/ads/:id/publish", h.statusAction(h.service.Publish))
	rg.POST("/ads/:id/pause", h.statusAction(h.service.Pause))
	rg.GET("/ads/:id/statistics", h.Statistics)
}

// RegisterStaffRoutes mounts the moderation queue under /admin.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/ads/pending", h.ListPending)
	rg.POST("/admin/ads/:id/approve", h.statusAction(h.service.Approve))
	rg.POST("/admin/ads/:id/reject", h.Reject)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	ad, err := h.service.Create(c.Request.Context(), middleware.Requester(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"ad": NewAdResponse(ad)})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	var req UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	ad, err := h.service.Update(c.Request.Context(), middleware.Requester(c), id, req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ad": NewAdResponse(ad)})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	ad, err := h.service.Get(c.Request.Context(), middleware.Requester(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ad": NewAdResponse(ad)})
}

func (h *Handler) ListMine(c *gin.Context) {
	page, limit := params.Page(c, h.pageSize)

	items, total, err := h.service.ListMine(c.Request.Context(), middleware.Requester(c), c.Query("status"), page, limit)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Paginated(c, NewAdResponses(items), total, page, limit)
}

func (h *Handler) ListPending(c *gin.Context) {
	page, limit := params.Page(c, h.pageSize)

	items, total, err := h.service.ListPendingReview(c.Request.Context(), middleware.Requester(c), page, limit)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Paginated(c, NewAdResponses(items), total, page, limit)
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	var req RejectAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body",
			map[string]string{"reason": "rejection reason is required"})
		return
	}

	ad, err := h.service.Reject(c.Request.Context(), middleware.Requester(c), id, req.Reason)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ad": NewAdResponse(ad)})
}

func (h *Handler) Statistics(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	stats, err := h.service.Statistics(c.Request.Context(), middleware.Requester(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func (h *Handler) TrackImpression(c *gin.Context) {
	h.track(c, h.service.TrackImpression)
}

func (h *Handler) TrackClick(c *gin.Context) {
	h.track(c, h.service.TrackClick)
}

func (h *Handler) track(c *gin.Context, fn func(ctx context.Context, id int64) error) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusFunc func(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error)

// statusAction adapts a lifecycle method that needs only the ad id.
func (h *Handler) statusAction(fn statusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := params.ID(c, "id")
		if !ok {
			return
		}

		ad, err := fn(c.Request.Context(), middleware.Requester(c), id)
		if err != nil {
			response.FromError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"ad": NewAdResponse(ad)})
	}
}
