package placement

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"admarket/internal/domain"
	"admarket/internal/logger"
	"admarket/internal/middleware"
	"admarket/internal/modules/booking"
	"admarket/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *Service, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := setupStore(t)
	svc := NewService(store, nil, time.Minute, logger.Discard())
	bookings := booking.NewService(store, nil, nil, logger.Discard(), 3)
	h := NewHandler(svc, bookings, logger.Discard(), 20)
	tokens := jwt.New("placement-secret", time.Hour)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	staffOnly := api.Group("")
	staffOnly.Use(middleware.JWTAuth(tokens), middleware.StaffOnly())
	h.RegisterStaffRoutes(staffOnly)

	return router, svc, tokens
}

func do(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateRequiresStaff(t *testing.T) {
	router, _, tokens := setupRouter(t)
	body := map[string]interface{}{
		"placement_name":     "Footer",
		"placement_code":     "FOOT",
		"base_price_per_day": "12.00",
	}

	adv, _ := tokens.GenerateToken(5, string(domain.RoleAdvertiser))
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/v1/ad-placements", body, adv).Code)

	admin, _ := tokens.GenerateToken(6, string(domain.RoleAdmin))
	w := do(router, http.MethodPost, "/api/v1/ad-placements", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"base_price_per_day":"12.00"`)

	w = do(router, http.MethodPost, "/api/v1/ad-placements", body, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestHandler_ListAndGet(t *testing.T) {
	router, svc, _ := setupRouter(t)
	p, err := svc.Create(context.Background(), staff, validRequest("SIDE"))
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/api/v1/ad-placements", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = do(router, http.MethodGet, "/api/v1/ad-placements/"+strconv.FormatInt(p.ID, 10), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"placement_code":"SIDE"`)

	w = do(router, http.MethodGet, "/api/v1/ad-placements/404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Availability(t *testing.T) {
	router, svc, _ := setupRouter(t)
	p, err := svc.Create(context.Background(), staff, validRequest("SIDE"))
	require.NoError(t, err)

	owner := &domain.User{Email: "promo@example.com", PasswordHash: "x", Name: "Promo Co", Role: domain.RoleAdvertiser}
	require.NoError(t, svc.store.DB().Create(owner).Error)
	ad := &domain.Ad{AdvertiserID: owner.ID, Title: "Promo", Status: domain.AdApproved}
	require.NoError(t, svc.store.Ads.Create(context.Background(), ad))
	pricing, err := domain.QuotePrice(p.BasePricePerDay, day("2024-03-01"), day("2024-03-10"), decimal.Zero)
	require.NoError(t, err)
	b := domain.NewBooking(ad.ID, p.ID, owner.ID, day("2024-03-01"), day("2024-03-10"), pricing)
	b.Status = domain.BookingConfirmed
	require.NoError(t, svc.store.Bookings.Create(context.Background(), b))

	base := "/api/v1/ad-placements/" + strconv.FormatInt(p.ID, 10) + "/availability"

	w := do(router, http.MethodGet, base+"?start_date=2024-03-05&end_date=2024-03-07", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var busy struct {
		Data booking.Availability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &busy))
	assert.False(t, busy.Data.IsAvailable)
	assert.Len(t, busy.Data.ConflictingBookings, 1)

	w = do(router, http.MethodGet, base+"?start_date=2024-03-11&end_date=2024-03-15", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_available":true`)

	w = do(router, http.MethodGet, base+"?start_date=2024-03-11", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "end_date")
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
