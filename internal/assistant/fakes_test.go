package assistant

import (
	"context"
	"sync"

	"github.com/hammamikhairi/cookassist/internal/domain"
)

// fakeGenerator returns reply/err. With gate set, each call blocks until
// the test sends on it or ctx ends.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []domain.IngredientQuery
	reply string
	err   error
	gate  chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, q domain.IngredientQuery) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, q)
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

// hold makes subsequent calls block until release.
func (g *fakeGenerator) hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
}

func (g *fakeGenerator) release() {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	gate <- struct{}{}
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// fakeSynth records utterances and lets the test finish the current one.
type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	done    func()
	cancels int
}

func (s *fakeSynth) Speak(ctx context.Context, text string, done func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	s.done = done
	return nil
}

func (s *fakeSynth) Pause()  {}
func (s *fakeSynth) Resume() {}

func (s *fakeSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	s.done = nil
}

// finish completes the current utterance.
func (s *fakeSynth) finish() {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()
	if done != nil {
		done()
	}
}

func (s *fakeSynth) utterances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// fakeSession is a recognition session driven by the test.
type fakeSession struct {
	cfg     domain.RecognizerConfig
	mu      sync.Mutex
	events  chan domain.RecognitionEvent
	stopped bool
}

func newFakeSession(cfg domain.RecognizerConfig) *fakeSession {
	return &fakeSession{cfg: cfg, events: make(chan domain.RecognitionEvent, 16)}
}

func (s *fakeSession) Events() <-chan domain.RecognitionEvent { return s.events }

func (s *fakeSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.events <- domain.RecognitionEvent{Kind: domain.RecognitionEnd}
	close(s.events)
}

// emit delivers ev unless the session was stopped.
func (s *fakeSession) emit(ev domain.RecognitionEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.events <- ev
	return true
}

// end simulates the recognizer ending on its own.
func (s *fakeSession) end() { s.Stop() }

func (s *fakeSession) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeRecognizer struct {
	mu          sync.Mutex
	unavailable error
	sessions    []*fakeSession
}

func (r *fakeRecognizer) Available() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unavailable
}

func (r *fakeRecognizer) Start(ctx context.Context, cfg domain.RecognizerConfig) (domain.RecognitionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unavailable != nil {
		return nil, r.unavailable
	}
	s := newFakeSession(cfg)
	r.sessions = append(r.sessions, s)
	return s, nil
}

// latest returns the most recent session with the given mode.
func (r *fakeRecognizer) latest(continuous bool) *fakeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sessions) - 1; i >= 0; i-- {
		if r.sessions[i].cfg.Continuous == continuous {
			return r.sessions[i]
		}
	}
	return nil
}

func (r *fakeRecognizer) count(continuous bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.cfg.Continuous == continuous {
			n++
		}
	}
	return n
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}
