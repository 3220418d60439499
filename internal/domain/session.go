// Package domain defines the core types and interfaces for the cooking
// assistant. All other packages depend on domain; domain depends on nothing.
package domain

// Phase is the submission lifecycle position. Exactly one is active.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListening
	PhaseLoading
	PhaseResult
	PhaseError
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseLoading:
		return "loading"
	case PhaseResult:
		return "result"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionState is the single value describing what the assistant is
// doing. Text is set only for PhaseResult (the recipe) and PhaseError
// (the "Error: ..." line).
type SessionState struct {
	Phase Phase
	Text  string
}

// Idle is the initial state.
func Idle() SessionState { return SessionState{Phase: PhaseIdle} }

// Listening is the state while a dictation session is open.
func Listening() SessionState { return SessionState{Phase: PhaseListening} }

// Loading is the state while the generator call is pending.
func Loading() SessionState { return SessionState{Phase: PhaseLoading} }

// Result holds a generated recipe.
func Result(text string) SessionState { return SessionState{Phase: PhaseResult, Text: text} }

// Failed holds a generation error line.
func Failed(message string) SessionState { return SessionState{Phase: PhaseError, Text: message} }

// HasText reports whether the state carries text that can be shown,
// spoken or copied.
func (s SessionState) HasText() bool {
	return (s.Phase == PhaseResult || s.Phase == PhaseError) && s.Text != ""
}

func (s SessionState) String() string { return s.Phase.String() }
