package server

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"hydrozap/internal/alert"
	"hydrozap/internal/analytics"
	"hydrozap/internal/auth"
	"hydrozap/internal/dashboard"
	"hydrozap/internal/device"
	"hydrozap/internal/feedback"
	"hydrozap/internal/grow"
	"hydrozap/internal/media"
	"hydrozap/internal/notify"
	"hydrozap/internal/profile"
	"hydrozap/internal/realtime"
	"hydrozap/internal/registry"
	"hydrozap/internal/sensor"
	"hydrozap/internal/store"
	"hydrozap/pkg/config"
	"hydrozap/pkg/database"
	"hydrozap/pkg/middleware"
)

// Server wires the document store, services and HTTP routes together.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	monitor *grow.Monitor
}

func New(cfg *config.Config) (*Server, error) {
	db, account, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub, db)

	var gateway notify.Gateway = notify.NopGateway{}
	if account != nil {
		gateway = notify.NewFCMGateway(account)
	} else {
		log.Printf("⚠️ No service account loaded, push notifications disabled")
	}
	dispatcher := notify.NewDispatcher(db, gateway)

	registryService := registry.NewService(db)
	deviceService := device.NewService(db, registryService, notifier)
	profileService := profile.NewService(db)
	growService := grow.NewService(db, deviceService, profileService, dispatcher, notifier)
	alertService := alert.NewService(db, dispatcher, notifier)
	sensorService := sensor.NewService(db, alertService)
	dashboardService := dashboard.NewService(db)
	feedbackService := feedback.NewService(db)

	provider := auth.NewGoogleIdentityProvider(cfg.FirebaseAPIKey)
	authService := auth.NewService(db, provider)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	} else {
		log.Printf("⚠️ No Redis configured, sensor ingest rate limiting disabled")
	}
	limiter := middleware.NewIngestRateLimiter(redisClient, cfg.IngestMaxPerMinute)

	engine := gin.Default()
	engine.Use(middleware.CORS())
	engine.Use(middleware.Auth(provider))

	authHandler := auth.NewHandler(authService)
	registryHandler := registry.NewHandler(registryService)
	deviceHandler := device.NewHandler(deviceService)
	sensorHandler := sensor.NewHandler(sensorService)
	profileHandler := profile.NewHandler(profileService)
	growHandler := grow.NewHandler(growService)
	alertHandler := alert.NewHandler(alertService)
	notifyHandler := notify.NewHandler(dispatcher)
	dashboardHandler := dashboard.NewHandler(dashboardService)
	feedbackHandler := feedback.NewHandler(feedbackService)
	analyticsHandler := analytics.NewHandler(analytics.NewLinearPredictor())
	realtimeHandler := realtime.NewHandler(hub, db)

	api := engine.Group("/api")
	{
		// Auth
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/reset-password", authHandler.ResetPassword)
		api.GET("/user-profile", authHandler.GetProfile)
		api.PATCH("/user-profile", authHandler.UpdateProfile)

		// Device pool
		api.POST("/registered-devices", registryHandler.Provision)
		api.GET("/registered-devices", registryHandler.List)
		api.GET("/registered-devices/:device_id/validate", registryHandler.Validate)

		// Devices
		api.POST("/devices", deviceHandler.Register)
		api.GET("/devices", deviceHandler.Get)
		api.GET("/devices/:device_id", deviceHandler.Get)
		api.PUT("/devices/:device_id", deviceHandler.UpdateRuntime)
		api.PATCH("/devices/:device_id", deviceHandler.Patch)
		api.DELETE("/devices/:device_id", deviceHandler.Delete)
		api.GET("/devices/:device_id/check", deviceHandler.CheckDelete)
		api.GET("/devices/:device_id/current_thresholds", deviceHandler.CurrentThresholds)
		api.GET("/device-count", deviceHandler.Count)

		// Sensor ingest and history
		api.POST("/sensor-data", limiter.IngestRateLimit(), sensorHandler.Ingest)
		api.GET("/sensor-data/:device_id", sensorHandler.Historical)
		api.GET("/devices/:device_id/dosing-logs", sensorHandler.DosingLogs)
		api.POST("/actuator-data", sensorHandler.ActuatorData)

		// Plant profiles
		api.POST("/plant-profiles", profileHandler.CreatePlant)
		api.GET("/plant-profiles", profileHandler.ListPlants)
		api.GET("/plant-profiles/:identifier", profileHandler.GetPlant)
		api.PATCH("/plant-profiles/:identifier", profileHandler.PatchPlant)
		api.DELETE("/plant-profiles/:identifier", profileHandler.DeletePlant)

		// Grow profiles
		api.POST("/grow-profiles", profileHandler.CreateGrowProfile)
		api.GET("/grow-profiles", profileHandler.ListGrowProfiles)
		api.GET("/grow-profiles/:profile_id", profileHandler.GetGrowProfile)
		api.PUT("/grow-profiles/:profile_id", profileHandler.UpdateGrowProfile)
		api.PATCH("/grow-profiles/:profile_id", profileHandler.PatchGrowProfile)
		api.DELETE("/grow-profiles/:profile_id", profileHandler.DeleteGrowProfile)

		// Grows
		api.POST("/grows", growHandler.Create)
		api.GET("/grows", growHandler.Get)
		api.GET("/grows/:grow_id", growHandler.Get)
		api.PUT("/grows/:grow_id", growHandler.Update)
		api.DELETE("/grows/:grow_id", growHandler.Delete)
		api.GET("/grow-count/:user_id", growHandler.Count)
		api.GET("/harvest-readiness/:grow_id", growHandler.Readiness)

		// Harvest logs
		api.POST("/harvest-logs/:device_id", growHandler.RecordHarvest)
		api.POST("/harvest-logs/:device_id/:grow_id", growHandler.RecordHarvest)
		api.GET("/harvest-logs/:device_id", growHandler.HarvestLogs)
		api.GET("/harvest-logs/:device_id/:grow_id", growHandler.HarvestLogs)
		api.GET("/global-leaderboard", growHandler.Leaderboard)

		// Alerts
		api.POST("/alerts", alertHandler.Trigger)
		api.GET("/alerts/:user_id", alertHandler.Get)
		api.GET("/alerts/:user_id/:alert_id", alertHandler.Get)
		api.PUT("/alerts/:user_id/:alert_id", alertHandler.Update)
		api.DELETE("/alerts/:user_id/:alert_id", alertHandler.Delete)
		api.GET("/alert-count/:user_id", alertHandler.Count)

		// Push notifications
		api.POST("/fcm-token", notifyHandler.RegisterToken)
		api.DELETE("/fcm-token", notifyHandler.UnregisterToken)
		api.POST("/test-fcm", notifyHandler.TestNotification)
		api.GET("/notification-preferences/:user_id", notifyHandler.GetPreferences)
		api.POST("/update-notification-preferences", notifyHandler.UpdatePreferences)

		// Dashboard
		api.GET("/dashboard-counts", dashboardHandler.Counts)

		// Predictions
		api.POST("/predict/tipburn", analyticsHandler.Tipburn)
		api.POST("/predict/color-index", analyticsHandler.ColorIndex)
		api.POST("/predict/leaf-count", analyticsHandler.LeafCount)
		api.POST("/predict/crop-suggestion", analyticsHandler.CropSuggestion)
		api.POST("/predict/environment-recommendation", analyticsHandler.EnvironmentRecommendation)

		// Feedback
		api.POST("/feedback", feedbackHandler.Submit)
	}

	if cfg.S3Bucket != "" {
		s3Client, err := media.NewS3Client(context.Background(), media.S3Config{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init S3 client: %w", err)
		}
		mediaHandler := media.NewHandler(media.NewService(s3Client, db))
		api.POST("/grows/:grow_id/photo", mediaHandler.Upload)
		api.GET("/grows/:grow_id/photo", mediaHandler.Photo)
		api.DELETE("/grows/:grow_id/photo", mediaHandler.Delete)
	} else {
		log.Printf("⚠️ No S3 bucket configured, grow photos disabled")
	}

	ws := engine.Group("/ws")
	{
		ws.GET("/devices/:user_id", realtimeHandler.Devices)
		ws.GET("/dashboard/:user_id", realtimeHandler.Dashboard)
		ws.GET("/alerts/:user_id", realtimeHandler.Alerts)
	}

	return &Server{
		cfg:     cfg,
		engine:  engine,
		monitor: grow.NewMonitor(growService),
	}, nil
}

// Run starts the harvest monitor and serves HTTP until the listener fails.
func (s *Server) Run() error {
	s.monitor.Start()
	defer s.monitor.Stop()

	log.Printf("🚀 HydroZap API listening on :%s", s.cfg.Port)
	return s.engine.Run(":" + s.cfg.Port)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func newStore(cfg *config.Config) (store.DocumentStore, *store.ServiceAccount, error) {
	switch cfg.StoreBackend {
	case "memory":
		log.Printf("⚠️ Using in-memory store, data will not survive a restart")
		return store.NewMemoryStore(), loadAccount(cfg), nil

	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return store.NewPostgresStore(db), loadAccount(cfg), nil

	case "firebase":
		account, err := store.LoadServiceAccount(cfg.ServiceAccountFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load service account: %w", err)
		}
		return store.NewFirebaseStore(cfg.FirebaseDatabaseURL, account), account, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// loadAccount is best-effort for the non-firebase backends, which only
// need the service account for push notifications.
func loadAccount(cfg *config.Config) *store.ServiceAccount {
	account, err := store.LoadServiceAccount(cfg.ServiceAccountFile)
	if err != nil {
		return nil
	}
	return account
}
