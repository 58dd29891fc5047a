package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/postmystyle/ugc-monitor/internal/archive"
	"github.com/postmystyle/ugc-monitor/internal/config"
	"github.com/postmystyle/ugc-monitor/internal/instagram"
	"github.com/postmystyle/ugc-monitor/internal/monitoring"
	"github.com/postmystyle/ugc-monitor/internal/notifications"
	"github.com/postmystyle/ugc-monitor/internal/scheduler"
	"github.com/postmystyle/ugc-monitor/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting PostMyStyle UGC Monitor")

	// Initialize the session/discovery store
	store, err := storage.NewPostgresStore(context.Background(), cfg.DatabaseDSN, cfg.PendingSessionLimit, cfg.SessionWindowDays)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize the Instagram Graph API client
	graphClient := instagram.NewClient(cfg.GraphAPIBaseURL, cfg.InstagramBusinessID, cfg.InstagramToken, cfg.PostFetchLimit)
	tokenRefresher := instagram.NewTokenRefresher(graphClient, cfg.FacebookAppID, cfg.FacebookAppSecret)

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Initialize the report archive when storage is configured
	var archiver archive.Archiver
	if cfg.StorageAccount != "" {
		azureArchive, err := archive.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize report archive: %v", err)
		}
		archiver = azureArchive
	} else {
		logrus.Info("Report archive not configured, skipping")
	}

	// Initialize monitoring service
	monitoringService := monitoring.NewService(cfg, store, graphClient, notificationService, archiver)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, monitoringService, tokenRefresher)

	// Start scheduler
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks and manual controls
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Metrics endpoint
	router.HandleFunc("/metrics", metricsHandler(monitoringService)).Methods("GET")

	// Manual trigger endpoint (for testing)
	router.HandleFunc("/trigger", triggerHandler(monitoringService)).Methods("POST")

	// Latest run report
	router.HandleFunc("/report/latest", latestReportHandler(monitoringService)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := monitoringService.Metrics()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(metrics))
	}
}

func triggerHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			report := monitoringService.Run(context.Background())
			if !report.Success {
				logrus.Errorf("Manual monitoring trigger failed with %d errors", len(report.Errors))
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message":"Monitoring run triggered"}`))
	}
}

func latestReportHandler(monitoringService *monitoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := monitoringService.LatestReportJSON()
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			logrus.Errorf("Failed to load latest run report: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"failed to load latest report"}`))
			return
		}
		if data == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no runs completed yet"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
