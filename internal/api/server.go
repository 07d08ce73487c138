// Package api exposes the canonical transaction store over REST.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flowledger/crypto-tracker/internal/config"
	"github.com/flowledger/crypto-tracker/internal/logger"
	"github.com/flowledger/crypto-tracker/internal/tracker"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         config.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	tracker    *tracker.Tracker
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, t *tracker.Tracker) *Server {
	return &Server{
		config:  cfg,
		tracker: t,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(SetupCORS())
	router.Use(RequestID())
	router.Use(Recovery())
	router.Use(RequestLogger())

	// Setup routes
	handler := NewHandler(s.tracker)
	SetupRoutes(router, handler, s.config.Auth)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg config.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Transaction endpoints (public read access)
		v1.GET("/transactions", handler.ListTransactions)
		v1.GET("/transactions/:id", handler.GetTransaction)
		v1.GET("/transactions/:id/chain", handler.GetChain)

		// Lineage linking (requires API key authentication)
		v1.POST("/links", APIKeyAuth(authCfg), handler.CreateLink)

		// Ingestion endpoints (requires API key authentication)
		v1.POST("/track/ethereum/:address", APIKeyAuth(authCfg), handler.TrackEthereum)
		v1.POST("/track/coinbase", APIKeyAuth(authCfg), handler.TrackCoinbase)
	}
}
