package payment

import (
	"errors"
	"io"
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Create)
	rg.GET("/payments", h.ListMine)
	rg.GET("/payments/:id", h.Get)
}

// RegisterStaffRoutes expects rg to already enforce a staff role.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/payments/:id/refund", h.Refund)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.Requester(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payment": NewPaymentResponse(p)})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), middleware.Requester(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": NewPaymentResponse(p)})
}

func (h *Handler) ListMine(c *gin.Context) {
	page, limit := params.Page(c, h.pageSize)

	items, total, err := h.service.ListMine(c.Request.Context(), middleware.Requester(c), page, limit)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Paginated(c, newPaymentResponses(items), total, page, limit)
}

func (h *Handler) Refund(c *gin.Context) {
	id, ok := params.ID(c, "id")
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Refund(c.Request.Context(), middleware.Requester(c), id, req.Reason)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": NewPaymentResponse(p)})
}

func newPaymentResponses(items []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(items))
	for i := range items {
		out = append(out, NewPaymentResponse(&items[i]))
	}
	return out
}
