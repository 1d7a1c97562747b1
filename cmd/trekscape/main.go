// Package main is the entry point for the Trekscape viewer.
package main

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/app"
	"github.com/Faultbox/trekscape/internal/config"
	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/logger"
	"github.com/Faultbox/trekscape/internal/trek"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.SaveConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("config written to %s\n", path)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Trekscape ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	t, err := trek.Load(cfg.Trek.Path)
	if err != nil {
		logger.Error("failed to load trek", zap.Error(err))
		os.Exit(1)
	}

	a, err := app.New(app.Options{
		Config:           cfg,
		Trek:             t,
		Logger:           logger.Log,
		OnMarkerActivate: printActivation,
	})
	if err != nil {
		logger.Error("failed to create app", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("app error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("app closed normally")
}

// printActivation writes the activated marker's details to stdout.
func printActivation(act marker.Activation) {
	fmt.Printf("[%s] %s\n", act.Type, act.Name)
	if act.Description != "" {
		fmt.Printf("  %s\n", act.Description)
	}
	keys := make([]string, 0, len(act.Extra))
	for k := range act.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, act.Extra[k])
	}
}
