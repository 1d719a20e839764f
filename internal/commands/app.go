package commands

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/fencer/internal/blocker"
	"github.com/balkashynov/fencer/internal/config"
	"github.com/balkashynov/fencer/internal/db"
	"github.com/balkashynov/fencer/internal/engine"
	"github.com/balkashynov/fencer/internal/logger"
	"github.com/balkashynov/fencer/internal/storage"
)

// App is what one command invocation works with, built once and passed down
type App struct {
	Config   config.Config
	Store    *storage.Gateway
	Detector blocker.Detector
	Log      *log.Logger
	// Engine holds engine defaults; logger and detector are filled in from App
	Engine engine.Options

	db *gorm.DB
}

// appOpener builds the App for a command
type appOpener func(cmd *cobra.Command) (*App, error)

// openApp loads config, sets up logging and opens the database
func openApp(cmd *cobra.Command) (*App, error) {
	var (
		result *config.LoadResult
		err    error
	)
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultPath()
		result, err = config.Load()
	} else {
		result, err = config.LoadFrom(configPath)
	}
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if cmd.Flags().Changed("db") {
		cfg.Storage.DBPath, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug, _ = cmd.Flags().GetBool("debug")
	}

	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, Dir: cfg.Log.Dir}); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Info("running command", "cmd", cmd.CommandPath(), "config", configPath)
	for _, warning := range result.Warnings {
		logger.Warn("config", "path", configPath, "warning", warning)
	}

	database, err := db.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened database", "path", filepath.Clean(cfg.Storage.DBPath))

	lg := logger.Get()
	return &App{
		Config:   cfg,
		Store:    storage.NewGateway(db.NewRecordStore(database), lg),
		Detector: blocker.NewProcessDetector(),
		Log:      lg,
		db:       database,
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return db.Close(a.db)
}

// engineOptions returns the options for a new engine
func (a *App) engineOptions() engine.Options {
	opts := a.Engine
	if opts.Logger == nil {
		opts.Logger = a.Log
	}
	if opts.Detector == nil {
		opts.Detector = a.Detector
	}
	return opts
}

// withApp wraps a command function to open the App first
func withApp(open appOpener, fn func(*cobra.Command, []string, *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := open(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Warn("failed to close database", "err", err)
			}
		}()
		return fn(cmd, args, app)
	}
}
