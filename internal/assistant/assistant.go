// Package assistant implements the cooking assistant session: ingredient
// input, recipe generation, read-aloud and the voice-command listener.
//
// Every state mutation runs on the goroutine inside Run. Public methods
// post a closure to that loop and wait for its result; background work
// (generator calls, recognizer sessions) posts its outcome back the same
// way. Nothing outside the loop touches session state.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/cookassist/internal/conversation"
	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
	"github.com/hammamikhairi/cookassist/internal/speech"
)

// Alert texts shown by the UI.
const (
	AlertRecognitionUnsupported = "Speech Recognition not supported"
	AlertClipboardUnsupported   = "Clipboard not available"
	AlertCopyFailed             = "Could not copy to clipboard"
)

// Option configures the Assistant.
type Option func(*Assistant)

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

// WithLocale sets the recognition locale for both sessions.
func WithLocale(locale string) Option {
	return func(a *Assistant) { a.locale = locale }
}

// WithRecentLimit sets how many history entries the view carries.
func WithRecentLimit(n int) Option {
	return func(a *Assistant) { a.recentLimit = n }
}

// WithRecognizer enables dictation and voice commands.
func WithRecognizer(r domain.Recognizer) Option {
	return func(a *Assistant) { a.recognizer = r }
}

// WithClipboard enables Copy.
func WithClipboard(c domain.Clipboard) Option {
	return func(a *Assistant) { a.clipboard = c }
}

// WithHistory records every finished submission.
func WithHistory(h domain.HistoryStore) Option {
	return func(a *Assistant) { a.history = h }
}

// View is a consistent snapshot of everything the UI renders.
type View struct {
	Query string
	// QueryRev is bumped whenever the assistant replaces the query itself
	// (dictation), so the UI knows to overwrite its text field.
	QueryRev      uint64
	State         domain.SessionState
	Speech        domain.SpeechState
	PanelOpen     bool
	Alert         string
	VoiceCommands bool // command listener is running
	Recent        []*domain.HistoryEntry
}

// Assistant is the session controller.
type Assistant struct {
	generator  domain.RecipeGenerator
	voice      *speech.Voice
	recognizer domain.Recognizer
	clipboard  domain.Clipboard
	history    domain.HistoryStore
	commands   *conversation.CommandParser
	log        *logger.Logger

	timeout     time.Duration
	locale      string
	recentLimit int

	ops     chan func()
	changes chan struct{}
	ready   chan struct{}
	done    chan struct{}
	running atomic.Bool

	// Published view, read by Snapshot from any goroutine.
	viewMu sync.RWMutex
	view   View

	// Loop-owned state below. Only touched from Run's goroutine.
	runCtx          context.Context
	query           string
	queryRev        uint64
	state           domain.SessionState
	beforeDictation domain.SessionState
	panelOpen       bool
	alert           string
	recent          []*domain.HistoryEntry

	submitID  uint64
	cancelGen context.CancelFunc

	dictation   domain.RecognitionSession
	dictationID uint64
	listener    domain.RecognitionSession
	listenerID  uint64
	warnedNoMic bool
}

// New creates an assistant that generates with gen and speaks through
// synth. Recognition, clipboard and history are optional.
func New(gen domain.RecipeGenerator, synth domain.Synthesizer, log *logger.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		generator:   gen,
		commands:    conversation.NewCommandParser(log.Named("commands")),
		log:         log,
		timeout:     60 * time.Second,
		locale:      speech.DefaultLocale,
		recentLimit: 5,
		ops:         make(chan func()),
		changes:     make(chan struct{}, 1),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		state:       domain.Idle(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.voice = speech.NewVoice(synth, log.Named("voice"), speech.WithStateListener(func(s domain.SpeechState) {
		a.log.Debug("speech -> %s", s)
		a.notify()
	}))
	a.view = a.buildView()
	return a
}

// Run drives the assistant until ctx is cancelled. It starts the voice
// command listener, then serves posted work. On return every session is
// stopped, pending generation is cancelled and speech is silenced.
func (a *Assistant) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("assistant: already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(a.done)

	a.runCtx = runCtx
	close(a.ready)
	a.log.Info("assistant running")

	a.startListener()
	a.publish()

	for {
		select {
		case <-runCtx.Done():
			a.teardown()
			a.log.Info("assistant stopped")
			return nil
		case fn := <-a.ops:
			fn()
		}
	}
}

// Ready is closed once Run is accepting calls.
func (a *Assistant) Ready() <-chan struct{} { return a.ready }

// Changes delivers a signal after the view changes. Signals coalesce:
// read Snapshot after each one.
func (a *Assistant) Changes() <-chan struct{} { return a.changes }

// Snapshot returns the current view.
func (a *Assistant) Snapshot() View {
	a.viewMu.RLock()
	v := a.view
	a.viewMu.RUnlock()
	v.Speech = a.voice.State()
	return v
}

// SetQuery records the text typed into the ingredient field.
func (a *Assistant) SetQuery(text string) error {
	return a.do(func() error {
		a.query = text
		return nil
	})
}

// Submit sends query to the recipe generator. Blank queries are rejected
// with domain.ErrEmptyQuery and change nothing; a submission while one is
// loading returns domain.ErrBusy. Any running dictation is abandoned and
// any speech is stopped before the request starts.
func (a *Assistant) Submit(query string) error {
	return a.do(func() error { return a.submit(domain.IngredientQuery(query)) })
}

// StartDictation opens a one-shot recognition session whose transcript
// replaces the query.
func (a *Assistant) StartDictation() error {
	return a.do(a.startDictation)
}

// Pause pauses speech. No effect unless speaking.
func (a *Assistant) Pause() error {
	return a.do(func() error {
		a.voice.Pause()
		return nil
	})
}

// Resume resumes paused speech. No effect unless paused.
func (a *Assistant) Resume() error {
	return a.do(func() error {
		a.voice.Resume()
		return nil
	})
}

// Stop silences speech from any state.
func (a *Assistant) Stop() error {
	return a.do(func() error {
		a.voice.Stop()
		return nil
	})
}

// ReadAloud speaks the current recipe or error line again. Only allowed
// while speech is stopped.
func (a *Assistant) ReadAloud() error {
	return a.do(func() error {
		if !a.state.HasText() || a.voice.State() != domain.SpeechStopped {
			return domain.ErrBusy
		}
		return a.voice.Speak(a.runCtx, a.state.Text)
	})
}

// Copy puts the current recipe or error line on the clipboard.
func (a *Assistant) Copy() error {
	return a.do(func() error {
		if !a.state.HasText() {
			return domain.ErrBusy
		}
		if a.clipboard == nil {
			a.alert = AlertClipboardUnsupported
			return fmt.Errorf("copy: %w", domain.ErrUnsupported)
		}
		if err := a.clipboard.WriteText(a.state.Text); err != nil {
			a.log.Error("copy failed: %v", err)
			if errors.Is(err, domain.ErrUnsupported) {
				a.alert = AlertClipboardUnsupported
			} else {
				a.alert = AlertCopyFailed
			}
			return err
		}
		a.log.Info("copied %d chars", len(a.state.Text))
		return nil
	})
}

// TogglePanel shows or hides the speech controls panel.
func (a *Assistant) TogglePanel() error {
	return a.do(func() error {
		a.panelOpen = !a.panelOpen
		return nil
	})
}

// DismissAlert clears the alert line.
func (a *Assistant) DismissAlert() error {
	return a.do(func() error {
		a.alert = ""
		return nil
	})
}

// ── Loop plumbing ────────────────────────────────────────────────

// do runs fn on the loop and waits for its result.
func (a *Assistant) do(fn func() error) error {
	select {
	case <-a.ready:
	default:
		return domain.ErrClosed
	}

	reply := make(chan error, 1)
	op := func() {
		err := fn()
		a.publish()
		reply <- err
	}
	select {
	case a.ops <- op:
	case <-a.done:
		return domain.ErrClosed
	}
	return <-reply
}

// post queues fn on the loop without waiting. Dropped once Run returned.
func (a *Assistant) post(fn func()) {
	select {
	case a.ops <- func() { fn(); a.publish() }:
	case <-a.done:
	}
}

func (a *Assistant) publish() {
	v := a.buildView()
	a.viewMu.Lock()
	a.view = v
	a.viewMu.Unlock()
	a.notify()
}

func (a *Assistant) buildView() View {
	return View{
		Query:         a.query,
		QueryRev:      a.queryRev,
		State:         a.state,
		PanelOpen:     a.panelOpen,
		Alert:         a.alert,
		VoiceCommands: a.listener != nil,
		Recent:        a.recent,
	}
}

func (a *Assistant) notify() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

func (a *Assistant) setState(s domain.SessionState) {
	if s.Phase != a.state.Phase {
		a.log.Debug("session %s -> %s", a.state, s)
	}
	a.state = s
}

func (a *Assistant) teardown() {
	a.stopListener()
	a.endDictation(false)
	if a.cancelGen != nil {
		a.cancelGen()
		a.cancelGen = nil
	}
	a.voice.Stop()
	a.publish()
}

// ── Submission ───────────────────────────────────────────────────

func (a *Assistant) submit(query domain.IngredientQuery) error {
	if !query.Valid() {
		return domain.ErrEmptyQuery
	}
	if a.state.Phase == domain.PhaseLoading {
		return domain.ErrBusy
	}
	if a.state.Phase == domain.PhaseListening {
		a.endDictation(false)
	}

	a.query = query.String()
	a.voice.Stop()
	a.setState(domain.Loading())

	a.submitID++
	id := a.submitID
	ctx, cancel := context.WithTimeout(a.runCtx, a.timeout)
	a.cancelGen = cancel

	a.log.Info("generating recipe for %q", query)
	go func() {
		text, err := a.generator.Generate(ctx, query)
		a.post(func() { a.finishGeneration(id, query, text, err) })
	}()
	return nil
}

func (a *Assistant) finishGeneration(id uint64, query domain.IngredientQuery, text string, err error) {
	if id != a.submitID || a.state.Phase != domain.PhaseLoading {
		return
	}
	if a.cancelGen != nil {
		a.cancelGen()
		a.cancelGen = nil
	}

	entry := &domain.HistoryEntry{Ingredients: query.String()}
	if err != nil {
		a.log.Error("generation failed: %v", err)
		a.setState(domain.Failed("Error: " + domain.ErrorMessage(err)))
		entry.Failed = true
	} else {
		a.log.Info("recipe ready (%d chars)", len(text))
		a.setState(domain.Result(text))
	}
	entry.Text = a.state.Text

	if err := a.voice.Speak(a.runCtx, a.state.Text); err != nil {
		a.log.Warn("could not speak result: %v", err)
	}
	a.record(entry)
}

func (a *Assistant) record(entry *domain.HistoryEntry) {
	if a.history == nil {
		return
	}
	if err := a.history.Append(a.runCtx, entry); err != nil {
		a.log.Warn("history append: %v", err)
		return
	}
	recent, err := a.history.Recent(a.runCtx, a.recentLimit)
	if err != nil {
		a.log.Warn("history recent: %v", err)
		return
	}
	a.recent = recent
}

// ── Dictation ────────────────────────────────────────────────────

func (a *Assistant) recognitionAvailable() error {
	if a.recognizer == nil {
		return domain.ErrUnsupported
	}
	return a.recognizer.Available()
}

func (a *Assistant) startDictation() error {
	if err := a.recognitionAvailable(); err != nil {
		a.log.Warn("dictation unavailable: %v", err)
		a.alert = AlertRecognitionUnsupported
		return fmt.Errorf("dictation: %w", domain.ErrUnsupported)
	}
	if a.state.Phase == domain.PhaseListening || a.state.Phase == domain.PhaseLoading {
		return domain.ErrBusy
	}

	// One microphone, one session.
	a.stopListener()

	sess, err := a.recognizer.Start(a.runCtx, domain.RecognizerConfig{
		Locale:          a.locale,
		Continuous:      false,
		InterimResults:  false,
		MaxAlternatives: 1,
	})
	if err != nil {
		a.log.Error("dictation start: %v", err)
		if errors.Is(err, domain.ErrUnsupported) {
			a.alert = AlertRecognitionUnsupported
		}
		a.startListener()
		return fmt.Errorf("dictation: %w", err)
	}

	a.beforeDictation = a.state
	a.setState(domain.Listening())
	a.dictationID++
	a.dictation = sess
	a.pump(a.dictationID, sess, a.onDictationEvent)
	a.log.Info("dictation started")
	return nil
}

func (a *Assistant) onDictationEvent(id uint64, ev domain.RecognitionEvent) {
	if id != a.dictationID || a.dictation == nil {
		return
	}
	switch ev.Kind {
	case domain.RecognitionResult:
		transcript := strings.TrimSpace(ev.Transcript)
		if transcript == "" {
			return
		}
		a.log.Info("dictated %q", transcript)
		a.query = transcript
		a.queryRev++
		a.endDictation(true)
	case domain.RecognitionError:
		a.log.Error("dictation error: %v", ev.Err)
		a.endDictation(true)
	case domain.RecognitionEnd:
		a.log.Debug("dictation ended")
		a.endDictation(true)
	}
}

// endDictation stops the dictation session if one is open. With restore
// set, the phase held before dictation comes back. The command listener
// restarts either way.
func (a *Assistant) endDictation(restore bool) {
	if a.dictation == nil {
		return
	}
	a.dictation.Stop()
	a.dictation = nil
	a.dictationID++

	if restore && a.state.Phase == domain.PhaseListening {
		a.setState(a.beforeDictation)
	}
	if a.runCtx.Err() == nil {
		a.startListener()
	}
}

// ── Voice command listener ───────────────────────────────────────

func (a *Assistant) startListener() {
	if a.listener != nil {
		return
	}
	if err := a.recognitionAvailable(); err != nil {
		if !a.warnedNoMic {
			a.log.Warn("voice commands unavailable: %v", err)
			a.warnedNoMic = true
		}
		return
	}

	sess, err := a.recognizer.Start(a.runCtx, domain.RecognizerConfig{
		Locale:          a.locale,
		Continuous:      true,
		InterimResults:  false,
		MaxAlternatives: 1,
	})
	if err != nil {
		a.log.Error("voice commands start: %v", err)
		return
	}
	a.listenerID++
	a.listener = sess
	a.pump(a.listenerID, sess, a.onCommandEvent)
	a.log.Debug("voice command listener started")
}

func (a *Assistant) stopListener() {
	if a.listener == nil {
		return
	}
	a.listener.Stop()
	a.listener = nil
	a.listenerID++
	a.log.Debug("voice command listener stopped")
}

func (a *Assistant) onCommandEvent(id uint64, ev domain.RecognitionEvent) {
	if id != a.listenerID || a.listener == nil {
		return
	}
	switch ev.Kind {
	case domain.RecognitionResult:
		if !ev.Final {
			return
		}
		switch a.commands.Parse(ev.Transcript) {
		case domain.CommandPause:
			a.log.Info("voice command: pause")
			a.voice.Pause()
		case domain.CommandResume:
			a.log.Info("voice command: resume")
			a.voice.Resume()
		}
	case domain.RecognitionError:
		a.log.Error("voice command error: %v", ev.Err)
	case domain.RecognitionEnd:
		a.log.Warn("voice command listener ended")
		a.listener = nil
	}
}

// pump forwards a session's events onto the loop until the session
// closes its channel.
func (a *Assistant) pump(id uint64, sess domain.RecognitionSession, handle func(uint64, domain.RecognitionEvent)) {
	go func() {
		for ev := range sess.Events() {
			a.post(func() { handle(id, ev) })
		}
	}()
}
