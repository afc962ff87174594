// Package main is the entry point for the lilcraft client.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/config"
	"github.com/Faultbox/lilcraft/internal/game"
	"github.com/Faultbox/lilcraft/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(filepath.Join(config.ConfigDir(), "config.yaml"))
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== lilcraft ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	g, err := game.New(cfg)
	if err != nil {
		logger.Fatal("failed to start game", zap.Error(err))
	}

	runErr := g.Run()
	g.Close()
	if runErr != nil {
		logger.Error("game error", zap.Error(runErr))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("game closed normally")
}
