package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.Recognizer = (*WhisperRecognizer)(nil)

// transcribeGrace bounds how long we wait for whisper after recording
// stops. Whisper occasionally never calls back on an empty recording.
const transcribeGrace = 20 * time.Second

// WhisperRecognizerOption configures the WhisperRecognizer.
type WhisperRecognizerOption func(*WhisperRecognizer)

// WithDictationDuration sets how long a one-shot session records.
func WithDictationDuration(d time.Duration) WhisperRecognizerOption {
	return func(r *WhisperRecognizer) { r.dictation = d }
}

// WithCommandChunk sets the recording length of each continuous-mode
// chunk. Shorter chunks react faster but clip longer phrases.
func WithCommandChunk(d time.Duration) WhisperRecognizerOption {
	return func(r *WhisperRecognizer) { r.chunk = d }
}

// WhisperRecognizer records from the default microphone and transcribes
// locally with whisper.cpp. It never produces interim results: every
// transcript it emits is final.
type WhisperRecognizer struct {
	bin       string
	model     string
	tempDir   string
	log       *logger.Logger
	dictation time.Duration
	chunk     time.Duration
}

// NewWhisperRecognizer creates a recognizer over a whisper binary and
// model file. Nothing is checked until Available or Start.
func NewWhisperRecognizer(bin, model, tempDir string, log *logger.Logger, opts ...WhisperRecognizerOption) *WhisperRecognizer {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	r := &WhisperRecognizer{
		bin:       bin,
		model:     model,
		tempDir:   tempDir,
		log:       log,
		dictation: 5 * time.Second,
		chunk:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the whisper binary and model can be found.
func (r *WhisperRecognizer) Available() error {
	if r.bin == "" || r.model == "" {
		return fmt.Errorf("whisper not configured: %w", domain.ErrUnsupported)
	}
	if _, err := exec.LookPath(r.bin); err != nil {
		return fmt.Errorf("whisper binary %q: %w", r.bin, domain.ErrUnsupported)
	}
	if _, err := os.Stat(r.model); err != nil {
		return fmt.Errorf("whisper model %q: %w", r.model, domain.ErrUnsupported)
	}
	return nil
}

// Start begins a recognition session. Its events channel is closed after
// the End event.
func (r *WhisperRecognizer) Start(ctx context.Context, cfg domain.RecognizerConfig) (domain.RecognitionSession, error) {
	if err := r.Available(); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &whisperSession{
		events: make(chan domain.RecognitionEvent, 8),
		cancel: cancel,
	}
	go s.run(sctx, r, cfg)

	r.log.Debug("recognition started (continuous=%v, locale=%s)", cfg.Continuous, cfg.Locale)
	return s, nil
}

// record does one recording cycle and returns the cleaned transcript.
// A cancelled ctx ends recording early; whatever was captured is still
// transcribed.
func (r *WhisperRecognizer) record(ctx context.Context, duration time.Duration) (string, error) {
	done := make(chan string, 1)
	callback := func(text string) {
		select {
		case done <- text:
		default:
		}
	}

	verbose := r.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(r.bin, r.model, r.tempDir, "wav", callback, verbose)
	if err != nil {
		return "", fmt.Errorf("transcriber init: %w", err)
	}
	if err := t.Start(); err != nil {
		return "", fmt.Errorf("recording start: %w", err)
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}
	t.Stop()

	select {
	case text := <-done:
		return CleanTranscript(text), nil
	case <-time.After(transcribeGrace):
		return "", fmt.Errorf("no transcript after %s", transcribeGrace)
	}
}

// whisperSession is one Start call's worth of recognition.
type whisperSession struct {
	events chan domain.RecognitionEvent
	cancel context.CancelFunc
	once   sync.Once
}

func (s *whisperSession) Events() <-chan domain.RecognitionEvent { return s.events }

// Stop ends recording. The session still delivers End. Safe to call
// more than once.
func (s *whisperSession) Stop() {
	s.once.Do(s.cancel)
}

func (s *whisperSession) run(ctx context.Context, r *WhisperRecognizer, cfg domain.RecognizerConfig) {
	defer close(s.events)
	defer func() { s.events <- domain.RecognitionEvent{Kind: domain.RecognitionEnd} }()

	if !cfg.Continuous {
		text, err := r.record(ctx, r.dictation)
		switch {
		case err != nil:
			r.log.Error("dictation failed: %v", err)
			s.events <- domain.RecognitionEvent{Kind: domain.RecognitionError, Err: err}
		case text != "":
			r.log.Info("dictation transcript: %q", text)
			s.events <- domain.RecognitionEvent{Kind: domain.RecognitionResult, Transcript: text, Final: true}
		default:
			r.log.Debug("dictation heard nothing")
		}
		return
	}

	for ctx.Err() == nil {
		text, err := r.record(ctx, r.chunk)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.log.Error("command chunk failed: %v", err)
			s.events <- domain.RecognitionEvent{Kind: domain.RecognitionError, Err: err}
			return
		}
		if text == "" {
			continue
		}
		r.log.Debug("heard: %q", text)
		select {
		case s.events <- domain.RecognitionEvent{Kind: domain.RecognitionResult, Transcript: text, Final: true}:
		case <-ctx.Done():
			return
		}
	}
}
