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
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or clear the remembered settings",
	Long: `lokator remembers the last input and output files, target language and
provider. API keys are never stored.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openSettings()
		if st == nil {
			return fmt.Errorf("settings are unavailable")
		}

		s := st.Load()
		fmt.Printf("File:            %s\n", st.Path())
		fmt.Printf("Input file:      %s\n", s.SourceFile)
		fmt.Printf("Output file:     %s\n", s.TargetFile)
		fmt.Printf("Target language: %s\n", s.TargetLanguage)
		fmt.Printf("Provider:        %s\n", s.Provider)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openSettings()
		if st == nil {
			return fmt.Errorf("settings are unavailable")
		}

		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear settings: %w", err)
		}
		fmt.Printf("Cleared %s\n", st.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsClearCmd)
}
