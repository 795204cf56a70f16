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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// logger is replaced in PersistentPreRunE once flags are parsed.
	logger = zap.NewNop()

	// env holds LOKATOR_* environment overrides.
	env = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "lokator",
	Short: "Translate JSON localization files",
	Long: `A CLI application that translates flat JSON localization files entry by
entry through a machine translation provider, keeping key order and
metadata ("__"-prefixed keys) intact.

Supported providers: LibreTranslate, MyMemory, Google Cloud Translation

Use "lokator translate --help" for translation options.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	env.SetEnvPrefix("LOKATOR")
	env.AutomaticEnv()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Settings file (default <user config dir>/lokator/settings.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
