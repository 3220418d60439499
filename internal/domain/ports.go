package domain

import "context"

// RecipeGenerator turns an ingredient list into recipe text.
// Implementations can be simulated, LLM-backed, or a remote backend.
type RecipeGenerator interface {
	Generate(ctx context.Context, query IngredientQuery) (string, error)
}

// Synthesizer plays one utterance at a time. Speak replaces whatever is
// playing and returns without waiting; done is called once if and only if
// the utterance plays to the end. Pause, Resume and Cancel are safe to call
// in any state.
type Synthesizer interface {
	Speak(ctx context.Context, text string, done func()) error
	Pause()
	Resume()
	Cancel()
}

// Recognizer opens speech recognition sessions. Available is the
// platform presence check; it returns ErrUnsupported (possibly wrapped)
// when recognition cannot run.
type Recognizer interface {
	Available() error
	Start(ctx context.Context, cfg RecognizerConfig) (RecognitionSession, error)
}

// RecognitionSession is one running recognizer instance.
type RecognitionSession interface {
	Events() <-chan RecognitionEvent
	Stop()
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// HistoryStore keeps finished submissions.
type HistoryStore interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	Get(ctx context.Context, id string) (*HistoryEntry, error)
	Recent(ctx context.Context, n int) ([]*HistoryEntry, error)
}
