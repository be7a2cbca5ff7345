package cmd

import (
	"fmt"

	"github.com/webpress/webpress/internal/assets"
	"github.com/webpress/webpress/internal/config"
	"github.com/webpress/webpress/internal/logging"
	"github.com/webpress/webpress/internal/manifest"
)

// setup loads the configuration and builds the compressor with every bundle
// from the manifest registered. Shared by the commands that need a fully
// wired core.
func setup() (*config.Config, logging.Logger, *assets.Compressor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	compressor, err := assets.New(assets.Options{
		StaticRoot:  cfg.Assets.StaticRoot,
		URLPrefix:   cfg.Server.URLPrefix,
		Debug:       cfg.Development.Debug,
		LessCommand: cfg.Assets.LessCommand,
		LessTimeout: cfg.Assets.LessTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	bundles, err := manifest.Load(cfg.Assets.Manifest)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := bundles.Register(compressor); err != nil {
		return nil, nil, nil, fmt.Errorf("registering bundles: %w", err)
	}

	return cfg, logger, compressor, nil
}
