package backend

import (
	"context"
	"fmt"

	"kalkyle/internal/control"
	"kalkyle/internal/core"
	applog "kalkyle/internal/log"
	"kalkyle/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new model factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Default(applog.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// LoadModel implements Factory.LoadModel
func (f *DefaultFactory) LoadModel(ctx context.Context, config Config) (*ModelResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *ModelResult
		err error
	)
	switch config.Type {
	case EmbeddedSource:
		res = &ModelResult{Model: core.DefaultModel()}
	case YAMLSource:
		res, err = f.loadYAML(config)
	case SQLiteSource:
		res, err = f.loadSQLite(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported model source: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := control.CheckDefaults(res.Model.Defaults); err != nil {
		res.Close()
		return nil, fmt.Errorf("%s model defaults: %w", config.Type, err)
	}
	res.Source = config.Type

	f.logger.InfoContext(ctx, "Model loaded",
		applog.FieldModelSource, config.Type.String(),
		"households", res.Model.Catalog.Len(),
		"drift_items", len(res.Model.Defaults.Drift))
	return res, nil
}

func (f *DefaultFactory) loadYAML(config Config) (*ModelResult, error) {
	m, err := LoadYAMLFile(config.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("load model file: %w", err)
	}
	return &ModelResult{Model: m}, nil
}

func (f *DefaultFactory) loadSQLite(ctx context.Context, config Config) (*ModelResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	m, err := repo.LoadModel(ctx)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("load model from SQLite: %w", err)
	}
	return &ModelResult{Model: m, Cleanup: repo.Close}, nil
}
