package orchestrator

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lokator/internal"
	"github.com/valpere/lokator/internal/document"
	"github.com/valpere/lokator/internal/placeholder"
	"github.com/valpere/lokator/internal/postprocess"
	"github.com/valpere/lokator/internal/translator"
)

const (
	DefaultSourceLang = "en"
	DefaultDelay      = 100 * time.Millisecond
)

type Config struct {
	// SourceLang is passed to the provider for every entry.
	SourceLang string
	// Delay is the pause after each entry before the next one starts. Zero
	// selects DefaultDelay; a negative value disables pacing.
	Delay time.Duration
	// ProtectMarkup hides tags and format items from the provider.
	ProtectMarkup bool
}

// ProgressFunc is called synchronously on the run goroutine after every
// processed entry. It must not block.
type ProgressFunc func(done, total int)

type EntryFailure struct {
	Key string
	Err error
}

type RunSummary struct {
	TotalEntries    int
	TranslatedCount int // processed: translated, kept after failure, or blank
	Cancelled       bool
	Failed          int
	Failures        []EntryFailure
}

type Orchestrator struct {
	config  Config
	logger  *zap.Logger
	running atomic.Bool
}

func New(config Config, logger *zap.Logger) *Orchestrator {
	if config.SourceLang == "" {
		config.SourceLang = DefaultSourceLang
	}
	if config.Delay == 0 {
		config.Delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		config: config,
		logger: logger,
	}
}

func (o *Orchestrator) Config() Config {
	return o.config
}

// Run translates every non-metadata entry of doc in document order and
// returns the same document together with the run summary.
//
// ctx is polled before each entry and during the pause between entries.
// A provider call already in flight is not interrupted. Entry failures are
// logged and recorded in the summary; they never abort the run. __LANG is
// rewritten to targetLang whether or not the run was cancelled.
func (o *Orchestrator) Run(ctx context.Context, doc *document.Document, provider translator.Provider, targetLang string, onProgress ProgressFunc) (*document.Document, RunSummary) {
	keys := doc.TranslatableKeys()
	summary := RunSummary{TotalEntries: len(keys)}

	callCtx := context.WithoutCancel(ctx)

	for i, key := range keys {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		text, _ := doc.Get(key)
		req := internal.TranslationRequest{
			Key:          key,
			OriginalText: text,
			SourceLang:   o.config.SourceLang,
			TargetLang:   targetLang,
		}

		if strings.TrimSpace(text) != "" {
			translated, err := o.translate(callCtx, provider, req)
			if err != nil {
				o.logger.Warn("entry kept original text",
					zap.String("key", req.Key),
					zap.String("provider", provider.Name()),
					zap.Error(err),
				)
				summary.Failures = append(summary.Failures, EntryFailure{Key: key, Err: err})
			} else {
				doc.Set(key, translated)
			}
		}

		summary.TranslatedCount++
		if onProgress != nil {
			onProgress(summary.TranslatedCount, summary.TotalEntries)
		}

		if i < len(keys)-1 && !o.pause(ctx) {
			summary.Cancelled = true
			break
		}
	}

	doc.SetLanguage(targetLang)
	summary.Failed = len(summary.Failures)

	if summary.Cancelled {
		o.logger.Info("run cancelled",
			zap.Int("done", summary.TranslatedCount),
			zap.Int("total", summary.TotalEntries),
		)
	}

	return doc, summary
}

func (o *Orchestrator) translate(ctx context.Context, provider translator.Provider, req internal.TranslationRequest) (string, error) {
	call := func(text string) (string, error) {
		return provider.Translate(ctx, text, req.SourceLang, req.TargetLang)
	}

	var (
		out string
		err error
	)
	if o.config.ProtectMarkup {
		out, err = placeholder.Wrap(req.OriginalText, call)
	} else {
		out, err = call(req.OriginalText)
	}
	if err != nil {
		return "", err
	}
	return postprocess.Clean(req.OriginalText, out), nil
}

// pause waits Delay after an entry. It returns false when ctx ends first.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.config.Delay < 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(o.config.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
