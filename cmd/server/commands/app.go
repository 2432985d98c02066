package commands

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/config"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/database"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/logging"
)

// App holds the dependencies shared by every command
type App struct {
	Cfg    *config.Config
	Logger *zap.Logger
}

// Init loads configuration and builds the logger
func (a *App) Init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.Cfg = cfg
	a.Logger = logger
	return nil
}

// Sync flushes buffered log entries
func (a *App) Sync() {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// OpenDB connects to the configured database
func (a *App) OpenDB() (*gorm.DB, error) {
	return database.Connect(a.Cfg, a.Logger)
}
