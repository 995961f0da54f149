package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"admarket/internal/cache"
	"admarket/internal/config"
	"admarket/internal/database"
	"admarket/internal/events"
	"admarket/internal/logger"
	"admarket/internal/middleware"
	"admarket/internal/modules/ad"
	"admarket/internal/modules/booking"
	"admarket/internal/modules/health"
	"admarket/internal/modules/payment"
	"admarket/internal/modules/placement"
	jwtsvc "admarket/internal/pkg/jwt"
	"admarket/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *gorm.DB
	redis    *cache.Client
	producer *events.Producer
	hub      *events.Hub
	server   *http.Server
}

func main() {
	_ = godotenv.Load()

	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("server forced to shutdown")
	}
	app.close()
	app.log.Info("server exited")
}

func buildApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(&cfg.Logger)
	app := &application{cfg: cfg, log: log}

	app.db, err = database.Connect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := database.Migrate(app.db); err != nil {
		app.close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		app.redis, err = cache.Connect(&cfg.Redis, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
	}

	app.hub = events.NewHub(log)
	publisher := events.Fanout{app.hub}
	if cfg.Kafka.Enabled {
		app.producer, err = events.NewProducer(&cfg.Kafka, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		publisher = append(publisher, app.producer)
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.Server.CORSOrigins),
	)
	app.registerRoutes(router, publisher)

	app.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return app, nil
}

func (app *application) registerRoutes(router *gin.Engine, publisher events.Publisher) {
	cfg, log := app.cfg, app.log
	store := repository.NewStore(app.db)
	tokens := jwtsvc.New(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	pageSize := cfg.Pagination.PageSize

	// interface values stay nil when Redis is off
	var placementCache placement.Cache
	limiter := middleware.NewRateLimiter(nil, log, &cfg.RateLimit)
	if app.redis != nil {
		placementCache = app.redis
		limiter = middleware.NewRateLimiter(app.redis, log, &cfg.RateLimit)
	}

	adService := ad.NewService(store, publisher, log)
	bookingService := booking.NewService(store, publisher, adService, log, cfg.Lifecycle.ReminderDaysAhead)
	placementService := placement.NewService(store, placementCache, cfg.Redis.CacheTTL, log)
	paymentService := payment.NewService(store, bookingService, publisher, log)

	adHandler := ad.NewHandler(adService, log, pageSize)
	bookingHandler := booking.NewHandler(bookingService, log, pageSize)
	placementHandler := placement.NewHandler(placementService, bookingService, log, pageSize)
	paymentHandler := payment.NewHandler(paymentService, log, pageSize)

	healthHandler := health.NewHandler(log).
		Add("database", func(ctx context.Context) error { return database.Health(ctx, app.db) })
	if app.redis != nil {
		healthHandler.Add("redis", app.redis.Health)
	}

	v1 := router.Group("/api/v1")

	// public
	healthHandler.RegisterRoutes(v1)
	placementHandler.RegisterPublicRoutes(v1)
	bookingHandler.RegisterPublicRoutes(v1)
	adHandler.RegisterTrackingRoutes(v1, middleware.RateLimit(limiter, "ad-tracking"))
	v1.GET("/ws/calendar", app.hub.ServeWS)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	bookingHandler.RegisterRoutes(protected)
	adHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)

	staff := v1.Group("")
	staff.Use(middleware.JWTAuth(tokens), middleware.StaffOnly())
	placementHandler.RegisterStaffRoutes(staff)
	adHandler.RegisterStaffRoutes(staff)
	paymentHandler.RegisterStaffRoutes(staff)
}

func (app *application) close() {
	if app.hub != nil {
		app.hub.Close()
	}
	if app.producer != nil {
		if err := app.producer.Close(); err != nil {
			app.log.WithError(err).Warn("kafka producer close failed")
		}
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if err := database.Close(app.db); err != nil {
		app.log.WithError(err).Warn("database close failed")
	}
}
