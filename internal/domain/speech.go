package domain

// SpeechState tracks speech output. It is independent of SessionState,
// except that a new submission always forces it back to SpeechStopped.
type SpeechState int

const (
	SpeechStopped SpeechState = iota
	SpeechSpeaking
	SpeechPaused
)

// String returns the label shown in the speech panel.
func (s SpeechState) String() string {
	switch s {
	case SpeechStopped:
		return "Stopped"
	case SpeechSpeaking:
		return "Speaking"
	case SpeechPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// RecognitionEventKind enumerates recognizer events.
type RecognitionEventKind int

const (
	RecognitionResult RecognitionEventKind = iota
	RecognitionError
	RecognitionEnd
)

// String returns a human-readable event kind.
func (k RecognitionEventKind) String() string {
	switch k {
	case RecognitionResult:
		return "result"
	case RecognitionError:
		return "error"
	case RecognitionEnd:
		return "end"
	default:
		return "unknown"
	}
}

// RecognitionEvent is emitted by a RecognitionSession. End is always the
// last event, after which the channel is closed.
type RecognitionEvent struct {
	Kind       RecognitionEventKind
	Transcript string
	Final      bool
	Err        error
}

// RecognizerConfig is the per-session recognizer setup.
type RecognizerConfig struct {
	Locale          string
	Continuous      bool
	InterimResults  bool
	MaxAlternatives int
}
