package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/lokator/internal/document"
	"github.com/valpere/lokator/internal/translator"
)

// ErrRunInProgress is returned by Start while another job of the same
// Orchestrator has not finished.
var ErrRunInProgress = errors.New("a translation run is already in progress")

type State int32

const (
	StateIdle State = iota
	StateLoading
	StateTranslating
	StateSaving
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateTranslating:
		return "translating"
	case StateSaving:
		return "saving"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Source supplies the document for a job.
type Source interface {
	Load(ctx context.Context) (*document.Document, error)
}

// Sink persists the document after a job, including cancelled ones.
type Sink interface {
	Save(ctx context.Context, doc *document.Document) error
}

type SourceFunc func(ctx context.Context) (*document.Document, error)

func (f SourceFunc) Load(ctx context.Context) (*document.Document, error) { return f(ctx) }

type SinkFunc func(ctx context.Context, doc *document.Document) error

func (f SinkFunc) Save(ctx context.Context, doc *document.Document) error { return f(ctx, doc) }

// Job is one load → translate → save run started by Start.
type Job struct {
	ID string

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	summary RunSummary
	err     error
}

func (j *Job) State() State {
	return State(j.state.Load())
}

func (j *Job) setState(s State) {
	j.state.Store(int32(s))
}

// Cancel asks the job to stop before the next entry. Entries already
// translated are kept and saved. Cancel is a no-op once the job has ended.
func (j *Job) Cancel() {
	if j.State().Terminal() {
		return
	}
	j.cancel()
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job ends. The error is non-nil only for a failed
// load or save and is then a *document.Error.
func (j *Job) Wait() (RunSummary, error) {
	<-j.done
	return j.summary, j.err
}

// Start runs a job in the background. Only one job per Orchestrator may run
// at a time.
func (o *Orchestrator) Start(ctx context.Context, src Source, dst Sink, provider translator.Provider, targetLang string, onProgress ProgressFunc) (*Job, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		summary, err := o.execute(runCtx, job, src, dst, provider, targetLang, onProgress)
		cancel()

		job.summary, job.err = summary, err
		o.running.Store(false)
		close(job.done)
	}()

	return job, nil
}

// Execute runs a job and waits for it.
func (o *Orchestrator) Execute(ctx context.Context, src Source, dst Sink, provider translator.Provider, targetLang string, onProgress ProgressFunc) (RunSummary, error) {
	job, err := o.Start(ctx, src, dst, provider, targetLang, onProgress)
	if err != nil {
		return RunSummary{}, err
	}
	return job.Wait()
}

func (o *Orchestrator) execute(ctx context.Context, job *Job, src Source, dst Sink, provider translator.Provider, targetLang string, onProgress ProgressFunc) (RunSummary, error) {
	logger := o.logger.With(zap.String("run_id", job.ID))

	job.setState(StateLoading)
	doc, err := src.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			job.setState(StateCancelled)
			return RunSummary{Cancelled: true}, nil
		}
		job.setState(StateFailed)
		logger.Error("failed to load document", zap.Error(err))
		return RunSummary{}, asDocumentError("load", err)
	}

	logger.Info("run started",
		zap.String("provider", provider.Name()),
		zap.String("source_lang", o.config.SourceLang),
		zap.String("target_lang", targetLang),
		zap.Int("entries", len(doc.TranslatableKeys())),
	)

	job.setState(StateTranslating)
	doc, summary := o.Run(ctx, doc, provider, targetLang, onProgress)

	job.setState(StateSaving)
	if err := dst.Save(context.WithoutCancel(ctx), doc); err != nil {
		job.setState(StateFailed)
		logger.Error("failed to save document", zap.Error(err))
		return summary, asDocumentError("save", err)
	}

	if summary.Cancelled {
		job.setState(StateCancelled)
	} else {
		job.setState(StateCompleted)
	}

	logger.Info("run finished",
		zap.Stringer("state", job.State()),
		zap.Int("translated", summary.TranslatedCount),
		zap.Int("total", summary.TotalEntries),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

func asDocumentError(op string, err error) error {
	var docErr *document.Error
	if errors.As(err, &docErr) {
		return err
	}
	return &document.Error{Op: op, Err: err}
}
