package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/flowledger/crypto-tracker/internal/adapter"
	"github.com/flowledger/crypto-tracker/internal/api"
	"github.com/flowledger/crypto-tracker/internal/config"
	"github.com/flowledger/crypto-tracker/internal/logger"
	"github.com/flowledger/crypto-tracker/internal/providers/coinbase"
	"github.com/flowledger/crypto-tracker/internal/providers/ethereum"
	"github.com/flowledger/crypto-tracker/internal/providers/etherscan"
	"github.com/flowledger/crypto-tracker/internal/registry"
	"github.com/flowledger/crypto-tracker/internal/store"
	"github.com/flowledger/crypto-tracker/internal/tracker"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting transaction tracker API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}

	// Run schema migration
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store and adapters
	dataStore := store.NewPGStore(db)
	httpClient := adapter.NewHTTPClient(30 * time.Second)
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	// Load DEX router registry
	dexRegistry, err := registry.LoadDEXRegistry(cfg.DEXRegistryPath)
	if err != nil {
		logger.Warn("Failed to load DEX registry, using built-in defaults",
			zap.Error(err),
			zap.String("path", cfg.DEXRegistryPath),
		)
		dexRegistry = registry.NewDefaultDEXRegistry()
	}

	// Build connectors
	etherscanClient := etherscan.NewClient(httpClient, jsonAdapter, etherscan.Config{
		APIURL:            cfg.Etherscan.APIURL,
		APIKey:            cfg.Etherscan.APIKey,
		RequestsPerSecond: cfg.Etherscan.RequestsPerSecond,
		StartBlock:        cfg.Etherscan.StartBlock,
		EndBlock:          cfg.Etherscan.EndBlock,
	})
	coinbaseClient := coinbase.NewClient(httpClient, jsonAdapter, clock, coinbase.Config{
		APIURL:    cfg.Coinbase.APIURL,
		APIKey:    cfg.Coinbase.APIKey,
		APISecret: cfg.Coinbase.APISecret,
	})

	// Connect to the Ethereum node; single-tx ingestion is disabled when
	// the RPC URL is unset
	var node ethereum.Client
	if cfg.Ethereum.RPCURL != "" {
		ethClient, err := adapter.NewEthClientDialer().Dial(context.Background(), cfg.Ethereum.RPCURL)
		if err != nil {
			logger.Warn("Failed to connect to ethereum node",
				zap.Error(err),
				zap.String("rpc_url", cfg.Ethereum.RPCURL),
			)
		} else {
			node = ethereum.NewClient(ethClient, jsonAdapter)
			defer node.Close()
		}
	}

	// Create tracker service
	svc := tracker.New(dataStore, etherscanClient, coinbaseClient, node, dexRegistry)

	// Create and start server
	srv := api.New(api.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth:         cfg.Auth,
	}, svc)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error(err, zap.String("component", "server"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "server"))
	}
}
