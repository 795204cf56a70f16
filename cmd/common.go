/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/valpere/lokator/internal/settings"
	"github.com/valpere/lokator/internal/translator"
)

// defaultProvider needs neither a key nor a self-hosted instance.
const defaultProvider = translator.ProviderMyMemory

// providerFlags are shared by the commands that talk to a provider.
type providerFlags struct {
	name          string
	apiKey        string
	libreURL      string
	mymemoryEmail string
}

func (f *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "provider", "p", "", "Provider: libretranslate, mymemory or google (default: last used, then mymemory)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Google Cloud Translation API key (or LOKATOR_API_KEY)")
	cmd.Flags().StringVar(&f.libreURL, "libre-url", translator.DefaultLibreTranslateURL, "LibreTranslate instance URL")
	cmd.Flags().StringVar(&f.mymemoryEmail, "mymemory-email", "", "MyMemory email (for higher limits)")
}

// selection builds the provider selection for id. The API key comes from
// --api-key, falling back to LOKATOR_API_KEY.
func (f *providerFlags) selection(id translator.ProviderID) translator.Selection {
	key := f.apiKey
	if key == "" {
		key = env.GetString("api_key")
	}
	return translator.Selection{
		ID:      id,
		APIKey:  key,
		BaseURL: f.libreURL,
		Email:   f.mymemoryEmail,
	}
}

// resolveProvider picks the provider from the flag, then stored settings,
// then defaultProvider.
func resolveProvider(flag, stored string) (translator.ProviderID, error) {
	switch {
	case flag != "":
		return translator.ParseProviderID(flag)
	case stored != "":
		return translator.ParseProviderID(stored)
	default:
		return defaultProvider, nil
	}
}

func openSettings() *settings.Store {
	path := cfgFile
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			logger.Warn("settings disabled", zap.Error(err))
			return nil
		}
		path = p
	}
	return settings.Open(path, logger)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "data", "lokator.db")
	}
	return filepath.Join(dir, "lokator", "history.db")
}

// newLogger builds a console logger on stderr so it does not mix with
// command output on stdout.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"

	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.DisableStacktrace = true
	config.DisableCaller = !debug

	return config.Build()
}
