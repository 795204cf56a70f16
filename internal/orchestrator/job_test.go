package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lokator/internal/document"
)

func memorySource(t *testing.T, data string) SourceFunc {
	return func(ctx context.Context) (*document.Document, error) {
		return parse(t, data), nil
	}
}

type captureSink struct {
	saved  *document.Document
	ctxErr error
	calls  int
}

func (c *captureSink) Save(ctx context.Context, doc *document.Document) error {
	c.calls++
	c.saved = doc
	c.ctxErr = ctx.Err()
	return nil
}

// blockingProvider parks the first call until release is closed.
func blockingProvider() (*mockProvider, chan struct{}, chan struct{}) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := &mockProvider{}
	p.translateFunc = func(ctx context.Context, text, _, _ string) (string, error) {
		if p.callCount.Load() == 1 {
			close(started)
			<-release
		}
		return strings.ToUpper(text), nil
	}
	return p, started, release
}

func waitDone(t *testing.T, job *Job) {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestExecute_Completed(t *testing.T) {
	o := New(noPacing(), nil)
	sink := &captureSink{}

	summary, err := o.Execute(context.Background(), memorySource(t, sampleDoc), sink, &mockProvider{}, "ru", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TranslatedCount)
	assert.False(t, summary.Cancelled)
	require.Equal(t, 1, sink.calls)

	greeting, _ := sink.saved.Get("greeting")
	assert.Equal(t, "HELLO", greeting)
}

func TestStart_StatesAndCancel(t *testing.T) {
	o := New(noPacing(), nil)
	p, started, release := blockingProvider()
	sink := &captureSink{}

	job, err := o.Start(context.Background(), memorySource(t, sampleDoc), sink, p, "ru", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	<-started
	assert.Equal(t, StateTranslating, job.State())

	job.Cancel()
	close(release)
	waitDone(t, job)

	summary, err := job.Wait()
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.TranslatedCount)
	assert.Equal(t, StateCancelled, job.State())

	// partial save with a live context
	require.Equal(t, 1, sink.calls)
	assert.NoError(t, sink.ctxErr)

	greeting, _ := sink.saved.Get("greeting")
	farewell, _ := sink.saved.Get("farewell")
	lang, _ := sink.saved.Language()
	assert.Equal(t, "HELLO", greeting)
	assert.Equal(t, "Goodbye", farewell)
	assert.Equal(t, "RU", lang)
}

func TestJob_CancelAfterCompletionIsNoOp(t *testing.T) {
	o := New(noPacing(), nil)

	job, err := o.Start(context.Background(), memorySource(t, sampleDoc), &captureSink{}, &mockProvider{}, "ru", nil)
	require.NoError(t, err)
	waitDone(t, job)

	job.Cancel()
	job.Cancel()

	summary, err := job.Wait()
	require.NoError(t, err)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, StateCompleted, job.State())
}

func TestStart_RunInProgress(t *testing.T) {
	o := New(noPacing(), nil)
	p, started, release := blockingProvider()

	job, err := o.Start(context.Background(), memorySource(t, sampleDoc), &captureSink{}, p, "ru", nil)
	require.NoError(t, err)
	<-started

	_, err = o.Start(context.Background(), memorySource(t, sampleDoc), &captureSink{}, p, "ru", nil)
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = o.Execute(context.Background(), memorySource(t, sampleDoc), &captureSink{}, p, "ru", nil)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	waitDone(t, job)

	_, err = o.Execute(context.Background(), memorySource(t, sampleDoc), &captureSink{}, &mockProvider{}, "ru", nil)
	assert.NoError(t, err)
}

func TestStart_LoadFailure(t *testing.T) {
	o := New(noPacing(), nil)
	p := &mockProvider{}
	sink := &captureSink{}
	src := document.FileStore{Path: filepath.Join(t.TempDir(), "missing.json")}

	job, err := o.Start(context.Background(), src, sink, p, "ru", nil)
	require.NoError(t, err)

	_, err = job.Wait()
	var docErr *document.Error
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "load", docErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.Equal(t, StateFailed, job.State())
	assert.Zero(t, p.callCount.Load())
	assert.Zero(t, sink.calls)
}

func TestStart_SaveFailure(t *testing.T) {
	o := New(noPacing(), nil)
	diskFull := errors.New("disk full")
	sink := SinkFunc(func(ctx context.Context, doc *document.Document) error {
		return diskFull
	})

	summary, err := o.Execute(context.Background(), memorySource(t, sampleDoc), sink, &mockProvider{}, "ru", nil)

	var docErr *document.Error
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "save", docErr.Op)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 2, summary.TranslatedCount)
}

func TestExecute_FileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "en.json")
	out := filepath.Join(dir, "out", "ru.json")
	require.NoError(t, os.WriteFile(in, []byte(sampleDoc), 0o644))

	o := New(noPacing(), nil)
	_, err := o.Execute(context.Background(), document.FileStore{Path: in}, document.FileStore{Path: out}, &mockProvider{}, "ru", nil)
	require.NoError(t, err)

	saved, err := document.Load(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"__LANG", "__VERSION", "greeting", "farewell"}, saved.Keys())

	farewell, _ := saved.Get("farewell")
	assert.Equal(t, "GOODBYE", farewell)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "translating", StateTranslating.String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateSaving.Terminal())
}
