package speech

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.Synthesizer = (*AudioSynthesizer)(nil)

// AudioSynthesizerOption configures the AudioSynthesizer.
type AudioSynthesizerOption func(*AudioSynthesizer)

// WithChunkSize sets the approximate max character count per TTS request.
// Longer text is split at sentence boundaries and synthesized in parallel
// so a whole recipe doesn't wait on one huge request.
func WithChunkSize(n int) AudioSynthesizerOption {
	return func(s *AudioSynthesizer) { s.chunkSize = n }
}

// WithCacheEntries bounds the in-memory audio cache.
func WithCacheEntries(n int) AudioSynthesizerOption {
	return func(s *AudioSynthesizer) { s.cacheEntries = n }
}

// AudioSynthesizer speaks through Azure TTS and the local audio device.
// Each utterance runs in its own goroutine: chunk -> synthesize (parallel,
// cached) -> play (sequential). Cancel aborts the utterance between or
// during chunks.
type AudioSynthesizer struct {
	tts          *AzureClient
	player       *Player
	cache        *AudioCache
	log          *logger.Logger
	chunkSize    int
	cacheEntries int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewAudioSynthesizer wires a TTS client to a player.
func NewAudioSynthesizer(tts *AzureClient, player *Player, log *logger.Logger, opts ...AudioSynthesizerOption) *AudioSynthesizer {
	s := &AudioSynthesizer{
		tts:          tts,
		player:       player,
		log:          log,
		chunkSize:    200, // roughly two sentences
		cacheEntries: 256,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewAudioCache(tts.Voice(), s.cacheEntries, log)
	return s
}

// Speak starts an utterance and returns immediately.
func (s *AudioSynthesizer) Speak(ctx context.Context, text string, done func()) error {
	uctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.player.Reset()
	go s.run(uctx, text, done)
	return nil
}

// Pause pauses playback; chunks still synthesizing will start paused.
func (s *AudioSynthesizer) Pause() { s.player.Pause() }

// Resume continues playback.
func (s *AudioSynthesizer) Resume() { s.player.Resume() }

// Cancel aborts the current utterance. Safe when idle.
func (s *AudioSynthesizer) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.log.Debug("utterance cancelled")
	}
}

// run synthesizes and plays one utterance. done fires only when every
// chunk has been played without cancellation.
func (s *AudioSynthesizer) run(ctx context.Context, text string, done func()) {
	chunks := splitChunks(text, s.chunkSize)
	s.log.Debug("utterance: %d chunk(s), %d chars", len(chunks), len(text))

	type result struct {
		idx   int
		audio []byte
		err   error
	}
	results := make(chan result, len(chunks))
	for i, chunk := range chunks {
		go func(idx int, t string) {
			audio, err := s.synthesizeWithCache(ctx, t)
			results <- result{idx: idx, audio: audio, err: err}
		}(i, chunk)
	}

	// Play in order as soon as each slot is filled.
	slots := make([][]byte, len(chunks))
	ready := make([]bool, len(chunks))
	next := 0
	for received := 0; received < len(chunks); received++ {
		var r result
		select {
		case <-ctx.Done():
			return
		case r = <-results:
		}
		if r.err != nil {
			s.log.Error("chunk %d synthesis failed: %v", r.idx, r.err)
		}
		slots[r.idx], ready[r.idx] = r.audio, true

		for next < len(chunks) && ready[next] {
			if slots[next] != nil {
				if err := s.player.Play(ctx, slots[next]); err != nil {
					if ctx.Err() != nil {
						return
					}
					s.log.Error("chunk %d playback failed: %v", next, err)
				}
			}
			next++
		}
	}

	if ctx.Err() == nil {
		done()
	}
}

// synthesizeWithCache checks the cache first, otherwise calls Azure and
// stores the result.
func (s *AudioSynthesizer) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := s.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Put(text, audio)
	return audio, nil
}

// splitChunks breaks text into sentence-boundary chunks of about size
// characters. size <= 0 or short text returns the text as a single chunk.
// Blank chunks are dropped.
func splitChunks(text string, size int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence) > size {
			flush()
		}
		current.WriteString(sentence)
	}
	flush()
	return chunks
}

// splitSentences splits text after . ! ? and newlines, keeping the
// delimiter and trailing whitespace with the preceding sentence. Recipes
// are mostly line-oriented lists, so newlines count as boundaries.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}
