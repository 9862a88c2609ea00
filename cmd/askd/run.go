package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"askd/internal/app"
	"askd/internal/config"
	"askd/internal/logging"
)

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default: platform config dir)")
	logLevel := fs.String("log-level", "", "override the configured log level")
	noWatch := fs.Bool("no-watch", false, "disable config file hot reload")
	fs.Parse(args)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	assistant, err := app.New(cfg, app.Deps{}, Version, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting assistant: %v\n", err)
		os.Exit(1)
	}
	defer assistant.Close()

	if !*noWatch {
		loader.OnChange(func(next *config.Config) {
			// Most settings need a restart to take effect; auto
			// execute is safe to flip live.
			if err := assistant.SetAutoExecute(next.Actions.AutoExecute); err != nil {
				log.Warn("apply reloaded auto_execute failed", "error", err)
			}
			if next.Hotkey.Chord != cfg.Hotkey.Chord {
				log.Warn("hotkey chord changed in config, restart to apply",
					"old", cfg.Hotkey.Chord, "new", next.Hotkey.Chord)
			}
			log.Info("configuration reloaded", "path", path)
		})
		if err := loader.Watch(); err != nil {
			log.Warn("config hot reload unavailable", "error", err)
		} else {
			defer loader.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("askd starting", "version", Version, "chord", cfg.Hotkey.Chord)
	if err := assistant.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "askd: %v\n", err)
		os.Exit(1)
	}
	log.Info("askd stopped")
}

func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.Logging.Level)
	lc.Format = logging.ParseFormat(cfg.Logging.Format)
	if cfg.Logging.Output != "" {
		lc.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSize = int64(cfg.Logging.MaxSizeMB)
	}
	return logging.New(lc)
}
