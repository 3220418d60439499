package speech

import (
	"context"
	"sync"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// VoiceOption configures the Voice.
type VoiceOption func(*Voice)

// WithStateListener registers a callback invoked after every speech state
// change. It runs without the Voice lock held.
func WithStateListener(fn func(domain.SpeechState)) VoiceOption {
	return func(v *Voice) { v.onChange = fn }
}

// Voice is the speech output state machine. It keeps exactly one
// utterance alive: Speak supersedes whatever was playing, and only the
// current utterance's completion can move the state back to Stopped.
//
//	Stopped --Speak--> Speaking --Pause--> Paused --Resume--> Speaking
//	any --Stop--> Stopped
//	Speaking --utterance done--> Stopped
type Voice struct {
	synth    domain.Synthesizer
	log      *logger.Logger
	onChange func(domain.SpeechState)

	mu    sync.Mutex
	state domain.SpeechState
	gen   uint64 // bumped for every Speak and Stop
	last  string // sanitized text of the latest utterance
}

// NewVoice creates a speech output controller over the given synthesizer.
func NewVoice(synth domain.Synthesizer, log *logger.Logger, opts ...VoiceOption) *Voice {
	v := &Voice{synth: synth, log: log}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// State returns the current speech state.
func (v *Voice) State() domain.SpeechState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// LastSpoken returns the sanitized text of the most recent utterance.
func (v *Voice) LastSpoken() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Speak sanitizes text, cancels the current utterance and starts a new one.
func (v *Voice) Speak(ctx context.Context, text string) error {
	clean := Sanitize(text)

	// Speaking is set before the synthesizer starts so a completion that
	// races ahead of this function still lands on the right state.
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.last = clean
	v.state = domain.SpeechSpeaking
	v.mu.Unlock()

	v.synth.Cancel()
	if err := v.synth.Speak(ctx, clean, func() { v.finished(gen) }); err != nil {
		v.log.Error("speak failed: %v", err)
		v.set(gen, domain.SpeechStopped)
		return err
	}

	v.log.Debug("speaking %d chars (utterance %d)", len(clean), gen)
	v.emit(domain.SpeechSpeaking)
	return nil
}

// Pause pauses playback. No-op unless Speaking.
func (v *Voice) Pause() {
	v.mu.Lock()
	if v.state != domain.SpeechSpeaking {
		v.mu.Unlock()
		v.log.Debug("pause ignored in state %s", v.state)
		return
	}
	v.state = domain.SpeechPaused
	v.mu.Unlock()

	v.synth.Pause()
	v.emit(domain.SpeechPaused)
}

// Resume continues playback. No-op unless Paused.
func (v *Voice) Resume() {
	v.mu.Lock()
	if v.state != domain.SpeechPaused {
		v.mu.Unlock()
		v.log.Debug("resume ignored in state %s", v.state)
		return
	}
	v.state = domain.SpeechSpeaking
	v.mu.Unlock()

	v.synth.Resume()
	v.emit(domain.SpeechSpeaking)
}

// Stop cancels synthesis unconditionally. Idempotent.
func (v *Voice) Stop() {
	v.mu.Lock()
	v.gen++
	changed := v.state != domain.SpeechStopped
	v.state = domain.SpeechStopped
	v.mu.Unlock()

	v.synth.Cancel()
	if changed {
		v.emit(domain.SpeechStopped)
	}
}

// finished is the synthesizer's completion callback for utterance gen.
func (v *Voice) finished(gen uint64) {
	v.log.Debug("utterance %d finished", gen)
	v.set(gen, domain.SpeechStopped)
}

// set moves to state s if gen is still the current utterance.
func (v *Voice) set(gen uint64, s domain.SpeechState) {
	v.mu.Lock()
	if gen != v.gen || v.state == s {
		v.mu.Unlock()
		return
	}
	v.state = s
	v.mu.Unlock()
	v.emit(s)
}

func (v *Voice) emit(s domain.SpeechState) {
	if v.onChange != nil {
		v.onChange(s)
	}
}
