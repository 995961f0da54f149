package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"admarket/internal/logger"

	"github.com/gin-gonic/gin"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

type Handler struct {
	checks  map[string]Check
	log     *logger.Logger
	started time.Time
	timeout time.Duration
}

func NewHandler(log *logger.Logger) *Handler {
	return &Handler{
		checks:  make(map[string]Check),
		log:     log,
		started: time.Now(),
		timeout: 3 * time.Second,
	}
}

// Add registers a named dependency. Call before RegisterRoutes.
func (h *Handler) Add(name string, check Check) *Handler {
	h.checks[name] = check
	return h
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Uptime   string            `json:"uptime"`
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := Response{
		Status:   "healthy",
		Services: make(map[string]string, len(names)),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.WithError(err).WithField("service", name).Warn("health check failed")
			resp.Services[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Services[name] = "healthy"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
