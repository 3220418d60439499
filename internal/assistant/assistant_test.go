package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
	"github.com/hammamikhairi/cookassist/internal/speech"
	"github.com/hammamikhairi/cookassist/internal/storage"
)

type harness struct {
	a     *Assistant
	gen   *fakeGenerator
	synth *fakeSynth
	rec   *fakeRecognizer
	clip  *fakeClipboard
	stop  func()
}

func setup(t *testing.T, opts ...Option) *harness {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	h := &harness{
		gen:   &fakeGenerator{reply: "Lemon garlic chicken"},
		synth: &fakeSynth{},
		rec:   &fakeRecognizer{},
		clip:  &fakeClipboard{},
	}
	opts = append([]Option{
		WithRecognizer(h.rec),
		WithClipboard(h.clip),
		WithHistory(storage.NewMemoryHistory(0, log)),
	}, opts...)
	h.a = New(h.gen, h.synth, log, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		h.a.Run(ctx)
		close(exited)
	}()
	<-h.a.Ready()

	h.stop = func() {
		cancel()
		<-exited
	}
	t.Cleanup(h.stop)
	return h
}

// waitFor polls the view until cond holds.
func waitFor(t *testing.T, a *Assistant, what string, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := a.Snapshot()
		if cond(v) {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; view: %+v", what, v)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func phaseIs(p domain.Phase) func(View) bool {
	return func(v View) bool { return v.State.Phase == p }
}

func TestSubmitResult(t *testing.T) {
	h := setup(t)
	h.gen.hold()

	if err := h.a.Submit("chicken, garlic, lemon"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if v := h.a.Snapshot(); v.State.Phase != domain.PhaseLoading {
		t.Fatalf("phase = %s, want loading", v.State)
	}
	h.gen.release()

	v := waitFor(t, h.a, "result", phaseIs(domain.PhaseResult))
	if v.State.Text != "Lemon garlic chicken" {
		t.Fatalf("text = %q", v.State.Text)
	}
	if v.Speech != domain.SpeechSpeaking {
		t.Fatalf("speech = %s, want Speaking", v.Speech)
	}
	if got := h.synth.utterances(); len(got) != 1 || got[0] != "Lemon garlic chicken" {
		t.Fatalf("spoken = %q", got)
	}
	if len(v.Recent) != 1 || v.Recent[0].Ingredients != "chicken, garlic, lemon" || v.Recent[0].Failed {
		t.Fatalf("history = %+v", v.Recent)
	}
	if h.gen.callCount() != 1 {
		t.Fatalf("generator calls = %d", h.gen.callCount())
	}

	h.synth.finish()
	waitFor(t, h.a, "speech stopped", func(v View) bool { return v.Speech == domain.SpeechStopped })
}

func TestSubmitFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with message", &domain.GenerationError{Message: "Out of ideas"}, "Error: Out of ideas"},
		{"without message", errors.New("connection refused"), "Error: Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.gen.err = tt.err

			if err := h.a.Submit("rice"); err != nil {
				t.Fatalf("submit: %v", err)
			}
			v := waitFor(t, h.a, "error", phaseIs(domain.PhaseError))
			if v.State.Text != tt.want {
				t.Fatalf("text = %q, want %q", v.State.Text, tt.want)
			}
			if got := h.synth.utterances(); len(got) != 1 || got[0] != tt.want {
				t.Fatalf("spoken = %q", got)
			}
			if len(v.Recent) != 1 || !v.Recent[0].Failed {
				t.Fatalf("history = %+v", v.Recent)
			}
		})
	}
}

func TestSubmitTimeout(t *testing.T) {
	h := setup(t, WithTimeout(20*time.Millisecond))
	h.gen.hold() // never released

	if err := h.a.Submit("rice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	v := waitFor(t, h.a, "error", phaseIs(domain.PhaseError))
	if v.State.Text != "Error: Something went wrong" {
		t.Fatalf("text = %q", v.State.Text)
	}
}

func TestSubmitRejectsBlankQuery(t *testing.T) {
	h := setup(t)

	for _, q := range []string{"", "   ", "\t\n"} {
		if err := h.a.Submit(q); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Fatalf("Submit(%q) = %v, want ErrEmptyQuery", q, err)
		}
	}
	if v := h.a.Snapshot(); v.State.Phase != domain.PhaseIdle {
		t.Fatalf("phase = %s, want idle", v.State)
	}
	if h.gen.callCount() != 0 {
		t.Fatal("generator must not be called")
	}
}

func TestSubmitWhileLoadingIsBusy(t *testing.T) {
	h := setup(t)
	h.gen.hold()

	if err := h.a.Submit("rice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := h.a.Submit("beans"); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second submit = %v, want ErrBusy", err)
	}
	h.gen.release()
	waitFor(t, h.a, "result", phaseIs(domain.PhaseResult))
	if h.gen.callCount() != 1 {
		t.Fatalf("generator calls = %d", h.gen.callCount())
	}
}

func TestSubmitStopsSpeechBeforeLoading(t *testing.T) {
	h := setup(t)

	if err := h.a.Submit("rice"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, h.a, "speaking", func(v View) bool { return v.Speech == domain.SpeechSpeaking })

	h.gen.hold()
	if err := h.a.Submit("beans"); err != nil {
		t.Fatal(err)
	}
	v := h.a.Snapshot()
	if v.State.Phase != domain.PhaseLoading || v.Speech != domain.SpeechStopped {
		t.Fatalf("got phase %s speech %s, want loading/Stopped", v.State, v.Speech)
	}
	if v.State.HasText() {
		t.Fatal("previous result should be cleared")
	}
	h.gen.release()
	waitFor(t, h.a, "second result", phaseIs(domain.PhaseResult))
}

func TestSpeechControls(t *testing.T) {
	h := setup(t)

	// Pause and resume are no-ops while stopped.
	h.a.Pause()
	h.a.Resume()
	if s := h.a.Snapshot().Speech; s != domain.SpeechStopped {
		t.Fatalf("speech = %s, want Stopped", s)
	}

	h.a.Submit("rice")
	waitFor(t, h.a, "speaking", func(v View) bool { return v.Speech == domain.SpeechSpeaking })

	steps := []struct {
		op   func() error
		want domain.SpeechState
	}{
		{h.a.Resume, domain.SpeechSpeaking},
		{h.a.Pause, domain.SpeechPaused},
		{h.a.Pause, domain.SpeechPaused},
		{h.a.Resume, domain.SpeechSpeaking},
		{h.a.Stop, domain.SpeechStopped},
		{h.a.Stop, domain.SpeechStopped},
		{h.a.Resume, domain.SpeechStopped},
	}
	for i, st := range steps {
		if err := st.op(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s := h.a.Snapshot().Speech; s != st.want {
			t.Fatalf("step %d: speech = %s, want %s", i, s, st.want)
		}
	}
}

func TestReadAloudAndCopy(t *testing.T) {
	h := setup(t)

	if err := h.a.ReadAloud(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("read aloud with nothing = %v, want ErrBusy", err)
	}
	if err := h.a.Copy(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("copy with nothing = %v, want ErrBusy", err)
	}

	h.a.Submit("rice")
	waitFor(t, h.a, "speaking", func(v View) bool { return v.Speech == domain.SpeechSpeaking })
	if err := h.a.ReadAloud(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("read aloud while speaking = %v, want ErrBusy", err)
	}

	h.synth.finish()
	waitFor(t, h.a, "stopped", func(v View) bool { return v.Speech == domain.SpeechStopped })
	if err := h.a.ReadAloud(); err != nil {
		t.Fatalf("read aloud: %v", err)
	}
	if got := h.synth.utterances(); len(got) != 2 || got[1] != "Lemon garlic chicken" {
		t.Fatalf("spoken = %q", got)
	}

	if err := h.a.Copy(); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if h.clip.text != "Lemon garlic chicken" {
		t.Fatalf("clipboard = %q", h.clip.text)
	}

	h.clip.err = errors.New("xclip exploded")
	if err := h.a.Copy(); err == nil {
		t.Fatal("expected copy error")
	}
	if v := h.a.Snapshot(); v.Alert != AlertCopyFailed {
		t.Fatalf("alert = %q", v.Alert)
	}
	h.a.DismissAlert()
	if v := h.a.Snapshot(); v.Alert != "" {
		t.Fatalf("alert not dismissed: %q", v.Alert)
	}
}

func TestTogglePanel(t *testing.T) {
	h := setup(t)
	for _, want := range []bool{true, false, true} {
		h.a.TogglePanel()
		if got := h.a.Snapshot().PanelOpen; got != want {
			t.Fatalf("panel = %v, want %v", got, want)
		}
	}
}

func TestDictationReplacesQuery(t *testing.T) {
	h := setup(t)
	waitFor(t, h.a, "command listener", func(v View) bool { return v.VoiceCommands })
	listener := h.rec.latest(true)

	h.a.SetQuery("old stuff")
	if err := h.a.StartDictation(); err != nil {
		t.Fatalf("start dictation: %v", err)
	}
	v := h.a.Snapshot()
	if v.State.Phase != domain.PhaseListening {
		t.Fatalf("phase = %s, want listening", v.State)
	}
	if !listener.isStopped() {
		t.Fatal("command listener should be suspended during dictation")
	}
	if err := h.a.StartDictation(); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second dictation = %v, want ErrBusy", err)
	}

	dictation := h.rec.latest(false)
	want := domain.RecognizerConfig{Locale: speech.DefaultLocale, MaxAlternatives: 1}
	if dictation.cfg != want {
		t.Fatalf("dictation config = %+v, want %+v", dictation.cfg, want)
	}

	dictation.emit(domain.RecognitionEvent{Kind: domain.RecognitionResult, Transcript: " tomatoes, basil ", Final: true})
	v = waitFor(t, h.a, "dictation done", phaseIs(domain.PhaseIdle))
	if v.Query != "tomatoes, basil" || v.QueryRev != 1 {
		t.Fatalf("query = %q rev %d", v.Query, v.QueryRev)
	}
	waitFor(t, h.a, "listener restarted", func(v View) bool { return v.VoiceCommands })
	if n := h.rec.count(true); n != 2 {
		t.Fatalf("command sessions = %d, want 2", n)
	}
}

func TestDictationErrorKeepsQueryAndPhase(t *testing.T) {
	h := setup(t)
	h.a.Submit("rice")
	waitFor(t, h.a, "result", phaseIs(domain.PhaseResult))

	h.a.SetQuery("rice")
	if err := h.a.StartDictation(); err != nil {
		t.Fatal(err)
	}
	h.rec.latest(false).emit(domain.RecognitionEvent{Kind: domain.RecognitionError, Err: errors.New("no-speech")})

	v := waitFor(t, h.a, "back to result", phaseIs(domain.PhaseResult))
	if v.Query != "rice" || v.State.Text != "Lemon garlic chicken" {
		t.Fatalf("view = %+v", v)
	}
}

func TestDictationEndWithoutResult(t *testing.T) {
	h := setup(t)
	if err := h.a.StartDictation(); err != nil {
		t.Fatal(err)
	}
	h.rec.latest(false).end()
	v := waitFor(t, h.a, "idle", phaseIs(domain.PhaseIdle))
	if v.QueryRev != 0 {
		t.Fatal("query must not change")
	}
}

func TestSubmitDuringDictationIgnoresLateTranscript(t *testing.T) {
	h := setup(t)
	if err := h.a.StartDictation(); err != nil {
		t.Fatal(err)
	}
	dictation := h.rec.latest(false)

	h.gen.hold()
	if err := h.a.Submit("rice"); err != nil {
		t.Fatal(err)
	}
	if !dictation.isStopped() {
		t.Fatal("submit should stop dictation")
	}
	if dictation.emit(domain.RecognitionEvent{Kind: domain.RecognitionResult, Transcript: "beans", Final: true}) {
		t.Fatal("stopped session accepted an event")
	}
	h.gen.release()

	v := waitFor(t, h.a, "result", phaseIs(domain.PhaseResult))
	if v.Query != "rice" {
		t.Fatalf("query = %q", v.Query)
	}
}

func TestDictationUnsupported(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		rec  error
	}{
		{"no recognizer", []Option{WithRecognizer(nil)}, nil},
		{"unavailable", nil, domain.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t, tt.opts...)
			h.rec.mu.Lock()
			h.rec.unavailable = tt.rec
			h.rec.mu.Unlock()

			if err := h.a.StartDictation(); !errors.Is(err, domain.ErrUnsupported) {
				t.Fatalf("err = %v, want ErrUnsupported", err)
			}
			v := h.a.Snapshot()
			if v.Alert != AlertRecognitionUnsupported {
				t.Fatalf("alert = %q", v.Alert)
			}
			if v.State.Phase != domain.PhaseIdle {
				t.Fatalf("phase = %s", v.State)
			}
		})
	}
}

func TestVoiceCommands(t *testing.T) {
	h := setup(t)
	waitFor(t, h.a, "command listener", func(v View) bool { return v.VoiceCommands })
	listener := h.rec.latest(true)
	if listener.cfg.InterimResults || !listener.cfg.Continuous {
		t.Fatalf("listener config = %+v", listener.cfg)
	}

	h.a.Submit("rice")
	waitFor(t, h.a, "speaking", func(v View) bool { return v.Speech == domain.SpeechSpeaking })

	say := func(text string, final bool) {
		listener.emit(domain.RecognitionEvent{Kind: domain.RecognitionResult, Transcript: text, Final: final})
	}

	say("please stop now", true)
	waitFor(t, h.a, "paused", func(v View) bool { return v.Speech == domain.SpeechPaused })

	say("Continue", false) // interim results are ignored
	say("what a nice day", true)
	say("Resume please", true)
	waitFor(t, h.a, "speaking again", func(v View) bool { return v.Speech == domain.SpeechSpeaking })
}

func TestCommandListenerEndIsNotRetried(t *testing.T) {
	h := setup(t)
	waitFor(t, h.a, "command listener", func(v View) bool { return v.VoiceCommands })

	h.rec.latest(true).end()
	waitFor(t, h.a, "listener gone", func(v View) bool { return !v.VoiceCommands })
	if n := h.rec.count(true); n != 1 {
		t.Fatalf("command sessions = %d, want 1", n)
	}
}

func TestRunShutdown(t *testing.T) {
	h := setup(t)
	waitFor(t, h.a, "command listener", func(v View) bool { return v.VoiceCommands })
	listener := h.rec.latest(true)
	h.gen.hold()
	h.a.Submit("rice")

	h.stop()

	if !listener.isStopped() {
		t.Fatal("listener should be stopped")
	}
	if err := h.a.Submit("beans"); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("submit after shutdown = %v, want ErrClosed", err)
	}
	if err := h.a.Run(context.Background()); err == nil {
		t.Fatal("second Run should fail")
	}
}

func TestCallsBeforeRun(t *testing.T) {
	a := New(&fakeGenerator{}, &fakeSynth{}, logger.New(logger.LevelOff, nil))
	if err := a.Submit("rice"); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
