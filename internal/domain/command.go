package domain

// Command is a playback control recognised from a spoken phrase.
type Command int

const (
	CommandNone Command = iota
	CommandPause
	CommandResume
)

// String returns a human-readable command.
func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	default:
		return "none"
	}
}
