package main

import (
	"flag"
	"log"
	"os"

	"RollSpread/internal/di"
	"RollSpread/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	definitions := flag.String("definitions", "", "spread definitions CSV (overrides input.definitions_file)")
	env := flag.String("env", "", "environment name (overrides environment)")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *definitions != "" {
		cfg.Input.DefinitionsFile = *definitions
	}
	if *env != "" {
		cfg.Environment = *env
	}

	log.Printf("env=%s backend=%s table=%s mode=%s", cfg.Environment, cfg.Store.Backend, cfg.Store.Table, cfg.Store.WriteMode)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run the batch (returns when every definition is processed)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
