package backend

import (
	"fmt"
	"strings"

	"kalkyle/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.ModelSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid model source in config: %q (want one of %s)",
			appConfig.ModelSource, strings.Join(SourceTypeStrings(), ", "))
	}

	return Config{
		Type:         sourceType,
		ModelFile:    appConfig.ModelFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid model source: %q (want one of %s)",
			c.Type, strings.Join(SourceTypeStrings(), ", "))
	}

	switch c.Type {
	case YAMLSource:
		if c.ModelFile == "" {
			return fmt.Errorf("model file is required for yaml source")
		}
	case SQLiteSource:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite source")
		}
	}

	return nil
}

// SourceTypes lists the model sources in the order they are documented.
func SourceTypes() []SourceType {
	return []SourceType{EmbeddedSource, YAMLSource, SQLiteSource}
}

// SourceTypeStrings is SourceTypes as config values.
func SourceTypeStrings() []string {
	out := make([]string, 0, 3)
	for _, t := range SourceTypes() {
		out = append(out, t.String())
	}
	return out
}
