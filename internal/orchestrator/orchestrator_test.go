package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/lokator/internal/document"
)

const sampleDoc = `{"__LANG":"EN","__VERSION":"1","greeting":"Hello","farewell":"Goodbye"}`

type mockProvider struct {
	nameVal       string
	translateFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	callCount     atomic.Int32

	mu   sync.Mutex
	seen []string
}

func (m *mockProvider) Name() string {
	if m.nameVal == "" {
		return "mock"
	}
	return m.nameVal
}

func (m *mockProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, text)
	m.mu.Unlock()

	if m.translateFunc != nil {
		return m.translateFunc(ctx, text, sourceLang, targetLang)
	}
	return strings.ToUpper(text), nil
}

func (m *mockProvider) TestConnection(ctx context.Context) bool { return true }

func (m *mockProvider) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func parse(t *testing.T, data string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(data))
	require.NoError(t, err)
	return doc
}

// values maps every translatable key of doc to its text.
func values(doc *document.Document) map[string]string {
	m := make(map[string]string)
	for _, key := range doc.TranslatableKeys() {
		m[key], _ = doc.Get(key)
	}
	return m
}

func marshal(t *testing.T, doc *document.Document) string {
	t.Helper()
	out, err := doc.Marshal()
	require.NoError(t, err)
	return string(out)
}

func noPacing() Config {
	return Config{Delay: -1}
}

func TestNew_Defaults(t *testing.T) {
	o := New(Config{}, nil)

	assert.Equal(t, DefaultSourceLang, o.Config().SourceLang)
	assert.Equal(t, DefaultDelay, o.Config().Delay)
}

func TestRun_UpperCaseProvider(t *testing.T) {
	o := New(noPacing(), nil)
	p := &mockProvider{}

	doc, summary := o.Run(context.Background(), parse(t, sampleDoc), p, "ru", nil)

	want := "{\n" +
		"  \"__LANG\": \"RU\",\n" +
		"  \"__VERSION\": \"1\",\n" +
		"  \"greeting\": \"HELLO\",\n" +
		"  \"farewell\": \"GOODBYE\"\n" +
		"}\n"
	assert.Equal(t, want, marshal(t, doc))
	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, 2, summary.TranslatedCount)
	assert.False(t, summary.Cancelled)
	assert.Zero(t, summary.Failed)
}

func TestRun_SecondCallFails(t *testing.T) {
	o := New(noPacing(), nil)
	p := &mockProvider{}
	p.translateFunc = func(ctx context.Context, text, _, _ string) (string, error) {
		if p.callCount.Load() == 2 {
			return "", errors.New("provider exploded")
		}
		return strings.ToUpper(text), nil
	}

	doc, summary := o.Run(context.Background(), parse(t, sampleDoc), p, "ru", nil)

	greeting, _ := doc.Get("greeting")
	farewell, _ := doc.Get("farewell")
	assert.Equal(t, "HELLO", greeting)
	assert.Equal(t, "Goodbye", farewell)
	assert.Equal(t, 2, summary.TranslatedCount)
	assert.False(t, summary.Cancelled)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "farewell", summary.Failures[0].Key)
	assert.EqualError(t, summary.Failures[0].Err, "provider exploded")
	assert.Equal(t, 1, summary.Failed)
}

func TestRun_MetadataNeverSent(t *testing.T) {
	o := New(noPacing(), nil)
	p := &mockProvider{}

	doc := parse(t, `{"__NOTE":{"a":[1,2]},"x":"one","__LANG":"de","y":"two"}`)
	doc, _ = o.Run(context.Background(), doc, p, "fr", nil)

	assert.Equal(t, []string{"one", "two"}, p.texts())

	note, ok := doc.Meta("__NOTE")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":[1,2]}`, string(note))

	lang, _ := doc.Language()
	assert.Equal(t, "FR", lang)
	assert.Equal(t, []string{"__NOTE", "x", "__LANG", "y"}, doc.Keys())
}

func TestRun_PassesLanguages(t *testing.T) {
	o := New(Config{SourceLang: "de", Delay: -1}, nil)
	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, src, tgt string) (string, error) {
			assert.Equal(t, "de", src)
			assert.Equal(t, "uk", tgt)
			return text, nil
		},
	}

	o.Run(context.Background(), parse(t, `{"a":"Hallo"}`), p, "uk", nil)
	assert.Equal(t, int32(1), p.callCount.Load())
}

func TestRun_BlankTextSkipsProvider(t *testing.T) {
	o := New(noPacing(), nil)
	p := &mockProvider{}

	var progress [][2]int
	doc, summary := o.Run(context.Background(), parse(t, `{"a":"","b":"   ","c":"hi"}`), p, "ru", func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})

	assert.Equal(t, int32(1), p.callCount.Load())
	assert.Equal(t, 3, summary.TranslatedCount)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	b, _ := doc.Get("b")
	assert.Equal(t, "   ", b)
}

func TestRun_CancelBeforeEntry(t *testing.T) {
	const cancelAfter = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := New(noPacing(), nil)
	p := &mockProvider{}
	p.translateFunc = func(callCtx context.Context, text, _, _ string) (string, error) {
		if p.callCount.Load() == cancelAfter {
			cancel()
			// the in-flight call is allowed to finish
			assert.NoError(t, callCtx.Err())
		}
		return strings.ToUpper(text), nil
	}

	doc := parse(t, `{"__LANG":"en","k0":"a","k1":"b","k2":"c","k3":"d"}`)
	doc, summary := o.Run(ctx, doc, p, "ru", nil)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, cancelAfter, summary.TranslatedCount)
	assert.Equal(t, 4, summary.TotalEntries)

	assert.Equal(t, map[string]string{"k0": "A", "k1": "B", "k2": "c", "k3": "d"}, values(doc))

	lang, _ := doc.Language()
	assert.Equal(t, "RU", lang)
}

func TestRun_PreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(Config{}, nil)
	p := &mockProvider{}

	doc, summary := o.Run(ctx, parse(t, sampleDoc), p, "ru", nil)

	assert.True(t, summary.Cancelled)
	assert.Zero(t, summary.TranslatedCount)
	assert.Zero(t, p.callCount.Load())

	lang, _ := doc.Language()
	assert.Equal(t, "RU", lang)
}

func TestRun_CancelDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := New(Config{Delay: time.Hour}, nil)
	p := &mockProvider{}

	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	doc, summary := o.Run(ctx, parse(t, sampleDoc), p, "ru", nil)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.TranslatedCount)
	assert.Equal(t, int32(1), p.callCount.Load())

	farewell, _ := doc.Get("farewell")
	assert.Equal(t, "Goodbye", farewell)
}

func TestRun_DeadlineDuringPacing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	o := New(Config{Delay: time.Hour}, nil)

	start := time.Now()
	_, summary := o.Run(ctx, parse(t, sampleDoc), &mockProvider{}, "ru", nil)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.TranslatedCount)
}

func TestRun_Pacing(t *testing.T) {
	const delay = 30 * time.Millisecond

	o := New(Config{Delay: delay}, nil)
	var calls []time.Time
	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, _, _ string) (string, error) {
			calls = append(calls, time.Now())
			return text, nil
		},
	}

	o.Run(context.Background(), parse(t, `{"a":"1","b":"2","c":"3"}`), p, "ru", nil)

	require.Len(t, calls, 3)
	// allow for timer granularity
	assert.GreaterOrEqual(t, calls[2].Sub(calls[0]), 2*delay-10*time.Millisecond)
}

func TestRun_PauseFollowsSlowCalls(t *testing.T) {
	const (
		delay = 40 * time.Millisecond
		call  = 60 * time.Millisecond
	)

	o := New(Config{Delay: delay}, nil)
	var finished, started []time.Time
	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, _, _ string) (string, error) {
			started = append(started, time.Now())
			time.Sleep(call)
			finished = append(finished, time.Now())
			return text, nil
		},
	}

	o.Run(context.Background(), parse(t, `{"a":"1","b":"2"}`), p, "ru", nil)

	require.Len(t, started, 2)
	// the pause runs after the slow call, not from its start
	assert.GreaterOrEqual(t, started[1].Sub(finished[0]), delay-10*time.Millisecond)
}

func TestRun_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	o := New(noPacing(), zap.New(core))

	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, _, _ string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	o.Run(context.Background(), parse(t, `{"title":"Hi"}`), p, "ru", nil)

	entries := logs.FilterMessage("entry kept original text").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "title", fields["key"])
	assert.Equal(t, "mock", fields["provider"])
	assert.Equal(t, "quota exceeded", fields["error"])
}

func TestRun_ProtectMarkup(t *testing.T) {
	o := New(Config{Delay: -1, ProtectMarkup: true}, nil)
	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, _, _ string) (string, error) {
			if strings.Contains(text, "<b>") || strings.Contains(text, "{n}") {
				t.Errorf("provider saw markup: %q", text)
			}
			return strings.ToUpper(text), nil
		},
	}

	doc, summary := o.Run(context.Background(), parse(t, `{"a":"You have <b>{n}</b> mails"}`), p, "ru", nil)

	a, _ := doc.Get("a")
	assert.Equal(t, "YOU HAVE <b>{n}</b> MAILS", a)
	assert.Zero(t, summary.Failed)
}

func TestRun_ProtectMarkup_LostMarker(t *testing.T) {
	o := New(Config{Delay: -1, ProtectMarkup: true}, nil)
	p := &mockProvider{
		translateFunc: func(ctx context.Context, text, _, _ string) (string, error) {
			return "no markers left", nil
		},
	}

	doc, summary := o.Run(context.Background(), parse(t, `{"a":"<i>kept</i>","b":"plain"}`), p, "ru", nil)

	a, _ := doc.Get("a")
	b, _ := doc.Get("b")
	assert.Equal(t, "<i>kept</i>", a)
	assert.Equal(t, "no markers left", b)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "a", summary.Failures[0].Key)
}
