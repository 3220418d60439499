package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.Synthesizer = (*SilentSynthesizer)(nil)

// SilentOption configures the SilentSynthesizer.
type SilentOption func(*SilentSynthesizer)

// WithWordDuration sets how long each word "takes" to speak.
func WithWordDuration(d time.Duration) SilentOption {
	return func(s *SilentSynthesizer) { s.perWord = d }
}

// SilentSynthesizer is used when TTS is disabled. It produces no audio
// but keeps the timing of a real utterance, so pause/resume/stop and the
// natural end behave the same as with audio.
type SilentSynthesizer struct {
	log     *logger.Logger
	perWord time.Duration

	mu        sync.Mutex
	gen       uint64
	timer     *time.Timer
	remaining time.Duration
	startedAt time.Time
	paused    bool
	done      func()
}

// NewSilentSynthesizer creates a timing-only synthesizer. The default pace
// is about 160 words per minute.
func NewSilentSynthesizer(log *logger.Logger, opts ...SilentOption) *SilentSynthesizer {
	s := &SilentSynthesizer{
		log:     log,
		perWord: 375 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak starts a timed utterance.
func (s *SilentSynthesizer) Speak(ctx context.Context, text string, done func()) error {
	words := len(strings.Fields(text))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.done = done
	s.remaining = time.Duration(words) * s.perWord
	s.paused = false
	s.startLocked()
	s.log.Debug("silent utterance: %d words, %s", words, s.remaining)
	return nil
}

// Pause freezes the remaining time.
func (s *SilentSynthesizer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil || s.paused {
		return
	}
	if s.timer != nil && s.timer.Stop() {
		s.remaining -= time.Since(s.startedAt)
		if s.remaining < 0 {
			s.remaining = 0
		}
	}
	s.paused = true
}

// Resume restarts the countdown.
func (s *SilentSynthesizer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	if s.done != nil {
		s.startLocked()
	}
}

// Cancel drops the current utterance without calling done.
func (s *SilentSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SilentSynthesizer) startLocked() {
	s.gen++
	gen := s.gen
	s.startedAt = time.Now()
	s.timer = time.AfterFunc(s.remaining, func() { s.fire(gen) })
}

func (s *SilentSynthesizer) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.done = nil
	s.paused = false
}

func (s *SilentSynthesizer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.paused || s.done == nil {
		s.mu.Unlock()
		return
	}
	done := s.done
	s.done = nil
	s.timer = nil
	s.mu.Unlock()
	done()
}
