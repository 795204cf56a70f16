// Package settings remembers the last used files, target language and
// provider between invocations. API keys are never written.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const fileName = "settings.json"

type Settings struct {
	SourceFile     string `mapstructure:"source_file"`
	TargetFile     string `mapstructure:"target_file"`
	TargetLanguage string `mapstructure:"target_language"`
	Provider       string `mapstructure:"provider"`
}

// DefaultPath returns <user config dir>/lokator/settings.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "lokator", fileName), nil
}

type Store struct {
	path   string
	logger *zap.Logger
}

func Open(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the stored settings. A missing or unreadable file yields empty
// settings; problems are logged, never returned.
func (s *Store) Load() Settings {
	var set Settings

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no stored settings", zap.String("path", s.path))
		} else {
			s.logger.Warn("ignoring unreadable settings", zap.String("path", s.path), zap.Error(err))
		}
		return set
	}

	if err := v.Unmarshal(&set); err != nil {
		s.logger.Warn("ignoring malformed settings", zap.String("path", s.path), zap.Error(err))
		return Settings{}
	}
	return set
}

// Save overwrites the settings file, creating its directory as needed.
func (s *Store) Save(set Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("source_file", set.SourceFile)
	v.Set("target_file", set.TargetFile)
	v.Set("target_language", set.TargetLanguage)
	v.Set("provider", set.Provider)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Clear deletes the settings file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Merge fills the empty fields of set from stored.
func Merge(set, stored Settings) Settings {
	if set.SourceFile == "" {
		set.SourceFile = stored.SourceFile
	}
	if set.TargetFile == "" {
		set.TargetFile = stored.TargetFile
	}
	if set.TargetLanguage == "" {
		set.TargetLanguage = stored.TargetLanguage
	}
	if set.Provider == "" {
		set.Provider = stored.Provider
	}
	return set
}
