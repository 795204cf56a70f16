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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lokator/internal/detector"
	"github.com/valpere/lokator/internal/document"
	"github.com/valpere/lokator/internal/orchestrator"
	"github.com/valpere/lokator/internal/settings"
	"github.com/valpere/lokator/internal/store"
	"github.com/valpere/lokator/internal/translator"
	"github.com/valpere/lokator/internal/validator"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string

	translateProvider providerFlags

	delay         time.Duration
	protectMarkup bool
	skipCheck     bool
	verify        bool

	dbPath    string
	noHistory bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a JSON localization file",
	Long: `Translate every entry of a flat JSON localization file into the target
language. Keys starting with "__" are metadata and are copied unchanged,
except __LANG, which is set to the upper-cased target language.

Entries that fail to translate keep their original text. Press Ctrl-C to
stop early: everything translated so far is still written to the output.

Input, output, target language and provider default to the values used
last time.`,
	Example: `  lokator translate -i en.json -o ru.json -t ru
  lokator translate -i en.json -o de.json -t de -p libretranslate --libre-url http://localhost:5000
  LOKATOR_API_KEY=... lokator translate -i en.json -o pt.json -t pt -p google --protect-markup`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openSettings()
		var stored settings.Settings
		if st != nil {
			stored = st.Load()
		}

		current := settings.Merge(settings.Settings{
			SourceFile:     inputFile,
			TargetFile:     outputFile,
			TargetLanguage: targetLang,
			Provider:       translateProvider.name,
		}, stored)

		switch {
		case current.SourceFile == "":
			return fmt.Errorf("input file is required (-i)")
		case current.TargetFile == "":
			return fmt.Errorf("output file is required (-o)")
		case current.TargetLanguage == "":
			return fmt.Errorf("target language is required (-t)")
		}

		if sameFile(current.SourceFile, current.TargetFile) {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		id, err := resolveProvider(translateProvider.name, stored.Provider)
		if err != nil {
			return err
		}
		current.Provider = string(id)

		sel := translateProvider.selection(id)
		provider, err := translator.New(sel)
		if err != nil {
			return err
		}

		doc, err := document.Load(current.SourceFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var det *detector.Detector
		srcLang := sourceLang
		if srcLang == "auto" {
			det = detector.New()
			srcLang = detectSource(det, doc)
		}

		if !skipCheck {
			logger.Debug("testing provider", zap.Stringer("provider", sel))
			if !provider.TestConnection(ctx) {
				return fmt.Errorf("provider %s failed the connection test", sel)
			}
		}

		orch := orchestrator.New(orchestrator.Config{
			SourceLang:    srcLang,
			Delay:         delay,
			ProtectMarkup: protectMarkup,
		}, logger)

		total := len(doc.TranslatableKeys())
		bar := newProgressBar(total, filepath.Base(current.SourceFile))

		src := orchestrator.SourceFunc(func(context.Context) (*document.Document, error) {
			return doc, nil
		})
		sink := document.FileStore{Path: current.TargetFile}

		startedAt := time.Now()
		job, err := orch.Start(ctx, src, sink, provider, current.TargetLanguage, func(done, _ int) {
			_ = bar.Set(done)
		})
		if err != nil {
			return err
		}

		summary, runErr := job.Wait()
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		printSummary(summary, job.State(), current.TargetFile)

		if verify && runErr == nil {
			printMismatches(validator.New(det).Check(doc, current.TargetLanguage))
		}

		if !noHistory {
			recordRun(job, summary, runErr, current, provider.Name(), srcLang, startedAt)
		}

		if st != nil {
			if err := st.Save(current); err != nil {
				logger.Warn("failed to save settings", zap.Error(err))
			}
		}

		return runErr
	},
}

func detectSource(det *detector.Detector, doc *document.Document) string {
	if code, ok := det.DetectDocument(doc); ok {
		fmt.Fprintf(os.Stderr, "Detected source language: %s\n", code)
		return code
	}
	logger.Warn("could not detect source language, assuming default",
		zap.String("source_lang", orchestrator.DefaultSourceLang))
	return orchestrator.DefaultSourceLang
}

func newProgressBar(total int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", name)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printSummary(summary orchestrator.RunSummary, state orchestrator.State, outPath string) {
	switch state {
	case orchestrator.StateCompleted:
		color.Green("Translated %d/%d entries into %s", summary.TranslatedCount, summary.TotalEntries, outPath)
	case orchestrator.StateCancelled:
		color.Yellow("Cancelled after %d/%d entries; partial result saved to %s", summary.TranslatedCount, summary.TotalEntries, outPath)
	default:
		color.Red("Run failed after %d/%d entries", summary.TranslatedCount, summary.TotalEntries)
	}

	if summary.Failed > 0 {
		color.Yellow("%d entries kept their original text:", summary.Failed)
		for _, f := range summary.Failures {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", f.Key, f.Err)
		}
	}
}

func printMismatches(mismatches []validator.Mismatch) {
	if len(mismatches) == 0 {
		return
	}
	color.Yellow("%d entries do not look translated:", len(mismatches))
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", m.Key, m.Err)
	}
}

func recordRun(job *orchestrator.Job, summary orchestrator.RunSummary, runErr error, current settings.Settings, providerName, srcLang string, startedAt time.Time) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		return
	}

	db, err := store.New(dbPath)
	if err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		return
	}
	defer db.Close()

	run := store.Run{
		ID:              job.ID,
		Provider:        providerName,
		SourceFile:      current.SourceFile,
		TargetFile:      current.TargetFile,
		SourceLang:      srcLang,
		TargetLang:      current.TargetLanguage,
		State:           job.State().String(),
		TotalEntries:    summary.TotalEntries,
		TranslatedCount: summary.TranslatedCount,
		FailedCount:     summary.Failed,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	failures := make([]store.Failure, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		failures = append(failures, store.Failure{Key: f.Key, Error: f.Err.Error()})
	}

	// the journal outlives a cancelled command context
	if err := db.SaveRun(context.Background(), run, failures); err != nil {
		logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	logger.Debug("run recorded", zap.String("run_id", run.ID), zap.String("db", dbPath))
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	if errA != nil || errB != nil {
		absA, _ := filepath.Abs(a)
		absB, _ := filepath.Abs(b)
		return absA == absB
	}
	return os.SameFile(ia, ib)
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input JSON file")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output JSON file")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", orchestrator.DefaultSourceLang, `Source language code, or "auto" to detect it`)
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code")

	translateProvider.register(translateCmd)

	translateCmd.Flags().DurationVar(&delay, "delay", orchestrator.DefaultDelay, "Minimum pause between provider requests (negative disables)")
	translateCmd.Flags().BoolVar(&protectMarkup, "protect-markup", false, "Hide HTML tags, {placeholders} and printf verbs from the provider")
	translateCmd.Flags().BoolVar(&verify, "verify", false, "Report translated entries whose language does not match the target")
	translateCmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip the provider connection test")

	translateCmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "Database path for run history")
	translateCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run")
}
