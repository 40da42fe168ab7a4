package cmd

import (
	"collection-tracker/core/config"
	"collection-tracker/core/database"
	"collection-tracker/core/logger"
	"collection-tracker/core/storage"
	"collection-tracker/feature/collection"
	"collection-tracker/feature/tracker"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app carries the wired dependencies every subcommand needs: config,
// logger, database, store and the assembled tracker.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	store   *collection.Store
	tracker *tracker.Tracker
}

// newApp loads configuration and wires the full pipeline. The storage
// client is optional; a failure there degrades to local-only exports.
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, err
	}
	logg = logger.WithRunID(logg)
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	store, err := collection.NewStore(db)
	if err != nil {
		return nil, err
	}

	var client storage.Client
	if cfg.Storage.Enabled {
		if client, err = storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage client unavailable, exports stay local", zap.Error(err))
			client = nil
		}
	}

	trk := tracker.New(tracker.Options{
		LogPath:           cfg.Tracker.LogPath,
		CSVPath:           cfg.Tracker.CSVPath(),
		JSONPath:          cfg.Tracker.JSONPath(),
		MetadataCachePath: cfg.Tracker.MetadataCachePath(),
		ActiveInterval:    cfg.Tracker.ActiveInterval,
		IdleInterval:      cfg.Tracker.IdleInterval,
		ExportInterval:    cfg.Tracker.ExportInterval,
		Metadata:          cfg.Metadata,
		StorageBucket:     cfg.Storage.Bucket,
		StoragePrefix:     cfg.Storage.Prefix,
	}, store, client, logg)

	return &app{cfg: cfg, logger: logg, db: db, store: store, tracker: trk}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
}
