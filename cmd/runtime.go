package cmd

import (
	"context"
	"fmt"

	"civic-crawler/config"
	"civic-crawler/database"
	"civic-crawler/logger"
	"civic-crawler/storage"
)

// loadConfig applies the persistent flags on top of the loaded config.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile, profile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (logger.Interface, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// openReader reads from PostgreSQL when a database is configured and from
// the output directory otherwise. The returned func releases the reader.
func openReader(ctx context.Context, cfg config.Config) (storage.RecordReader, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	store, err := storage.OpenFileStore(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
