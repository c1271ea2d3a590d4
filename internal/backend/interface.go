package backend

import (
	"context"
	"slices"

	"kalkyle/internal/core"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ModelResult is a loaded model and the cleanup of whatever produced it.
type ModelResult struct {
	Model   core.Model
	Source  SourceType
	Cleanup CleanupFunc
}

// Close runs the cleanup, if any.
func (r *ModelResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory loads the calculator model from the configured source.
type Factory interface {
	LoadModel(ctx context.Context, config Config) (*ModelResult, error)
}

// Config holds configuration for model loading
type Config struct {
	Type SourceType

	// YAML specific
	ModelFile string

	// SQLite specific
	SQLiteDBPath string
}

// SourceType names where the model comes from.
type SourceType string

const (
	EmbeddedSource SourceType = "embedded"
	YAMLSource     SourceType = "yaml"
	SQLiteSource   SourceType = "sqlite"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	return slices.Contains(SourceTypes(), st)
}
