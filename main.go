package main

import (
	"chainboard/controllers"
	"chainboard/database"
	"chainboard/services"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment defaults")
	}

	symbol := envString("CHAIN_SYMBOL", "NIFTY")
	baseURL := envString("NSE_BASE_URL", "https://www.nseindia.com/api")
	dbPath := envString("DB_PATH", "data/chainboard.db")
	port := envString("PORT", "8080")
	timeout := time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second
	refreshMinutes := envInt("REFRESH_MINUTES", 5)

	storage, err := database.NewLocalStorage(dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open storage")
	}

	dataService := services.NewNSEChainDataService(baseURL, timeout)
	analytics := services.NewChainAnalytics()
	poller := services.NewChainPoller(dataService, analytics, storage, symbol, refreshMinutes)

	dashboardController := controllers.NewDashboardController(poller)
	activityController := controllers.NewActivityController(storage)

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": symbol})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/dashboard", dashboardController.HandleGetDashboard)
		api.POST("/dashboard/refresh", dashboardController.HandleRefresh)
		api.GET("/dashboard/interval", dashboardController.HandleGetInterval)
		api.PUT("/dashboard/interval", dashboardController.HandleSetInterval)
		api.GET("/activity", activityController.HandleListCycles)
		api.GET("/activity/stats", activityController.HandleCycleStats)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", port).Info("Dashboard server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
