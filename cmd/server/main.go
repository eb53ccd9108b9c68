package main

import (
	"flag"
	"os"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/config"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"

	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "absolute path to the JSON config file")
	flag.Parse()

	// Load configuration
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		panic(err)
	}
	defer logger.Info("Server shutting down")

	// Platform credentials may be stored encrypted in the config file
	if err := cfg.DecryptCredentials(os.Getenv("SECURESTAY_ENC_KEY")); err != nil {
		logger.Fatal("Failed to decrypt credentials", zap.Error(err))
	}

	// Setup and start server
	srv, sched, err := SetupServer(cfg)
	if err != nil {
		logger.Fatal("Failed to setup server", zap.Error(err))
	}

	if err := StartServer(srv, sched); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
