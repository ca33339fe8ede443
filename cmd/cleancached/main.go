package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fenilsonani/cleancache/internal/app"
	"github.com/fenilsonani/cleancache/internal/config"
	"github.com/fenilsonani/cleancache/internal/daemon"
	"github.com/fenilsonani/cleancache/internal/logging"
)

var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildTime = "unknown"

	configPath  string
	testConfig  bool
	showVersion bool
	runOnce     bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&testConfig, "test-config", false, "Test configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&runOnce, "once", false, "Run one cleanup now and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("cleancached v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Daemon == nil || !cfg.Daemon.Enabled {
		fmt.Fprintf(os.Stderr, "Daemon not enabled in configuration\n")
		fmt.Fprintf(os.Stderr, "Add the following to your config file:\n")
		fmt.Fprintf(os.Stderr, "daemon:\n")
		fmt.Fprintf(os.Stderr, "  enabled: true\n")
		fmt.Fprintf(os.Stderr, "  schedule: \"%s\"\n", config.DefaultSchedule)
		os.Exit(1)
	}

	logger, closer, err := logging.Init(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building cleanup pipeline: %v\n", err)
		os.Exit(1)
	}

	d, err := daemon.New(cfg, a.Orchestrator(app.RunOptions{}), logging.Component("daemon"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
		os.Exit(1)
	}

	if testConfig {
		fmt.Println("Configuration is valid")
		fmt.Printf("Schedule: %s\n", cfg.Daemon.Schedule)
		if path, err := cfg.HistoryPath(); err == nil {
			fmt.Printf("History: %s\n", path)
		}
		os.Exit(0)
	}

	if runOnce {
		d.RunOnce(context.Background())
		return
	}

	logger.Info().Str("version", Version).Msg("starting cleancached")
	if err := d.Start(); err != nil {
		logger.Error().Err(err).Msg("daemon stopped with error")
		closer.Close()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}
