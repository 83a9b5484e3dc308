package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/gym-admin/internal/api"
	"alcyxob/gym-admin/internal/config"
	"alcyxob/gym-admin/internal/logging"
	"alcyxob/gym-admin/internal/repository/mongo"
	"alcyxob/gym-admin/internal/service"
	"alcyxob/gym-admin/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// @title Gym Admin API
// @version 1.0
// @description Memberships, body measurements, progress photos and plan assignments for personal trainers.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}
	logging.Setup(cfg.Logging)
	log.Infof("starting gym admin server, log level %s", log.GetLevel())

	loc, err := cfg.Membership.Location()
	if err != nil {
		log.Fatalf("membership timezone: %s", err)
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %s", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %s", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Infof("connected to database %s", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		failed := mongo.EnsureIndexes(ctx, appDB)
		for collection, err := range failed {
			log.Errorf("ensure indexes on %s: %s", collection, err)
		}
		log.Debug("index creation process completed")
	}()

	// --- Initialize Storage ---
	s3Storage, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize S3 storage: %s", err)
	}
	fileStorage := storage.WithURLCache(s3Storage, cfg.Cache.URLCacheSizeMB, cfg.Cache.URLTTL)

	// --- Initialize Repositories ---
	trainerRepo := mongo.NewMongoTrainerRepository(appDB)
	clientRepo := mongo.NewMongoClientRepository(appDB)
	measurementRepo := mongo.NewMongoMeasurementRepository(appDB)
	photoRepo := mongo.NewMongoPhotoRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)

	// --- Initialize Services ---
	urlExpiry := cfg.S3.URLExpiry
	photoService := service.NewPhotoService(measurementRepo, photoRepo, fileStorage,
		service.ProgressPhotoPolicy(cfg.Uploads.ProgressPhotoMaxBytes), urlExpiry)
	clientService := service.NewClientService(clientRepo, measurementRepo, photoRepo, assignmentRepo, fileStorage,
		cfg.Membership.ExpiringWindowDays)

	services := api.Services{
		Auth:         service.NewAuthService(trainerRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Clients:      clientService,
		Measurements: service.NewMeasurementService(clientRepo, measurementRepo, photoRepo, fileStorage, photoService),
		Photos:       photoService,
		Comparisons:  service.NewComparisonService(clientRepo, measurementRepo, photoService),
		Templates: service.NewTemplateService(templateRepo, assignmentRepo, fileStorage,
			service.ExerciseImagePolicy(cfg.Uploads.ExerciseImageMaxBytes), urlExpiry),
		Assignments: service.NewAssignmentService(clientRepo, templateRepo, assignmentRepo),
		Export:      service.NewExportService(clientService, measurementRepo, photoRepo, assignmentRepo, templateRepo, fileStorage, urlExpiry),
	}

	// --- Initialize Gin Engine ---
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger())
	api.SetupRoutes(router, cfg.JWT.Secret, api.TodayIn(loc), services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}

	log.Info("server exiting")
}
