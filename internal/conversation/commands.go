// Package conversation maps recognised speech to playback commands.
package conversation

import (
	"strings"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// commandRule fires when the normalised transcript contains any keyword.
// Rules are checked in order; the first match wins.
type commandRule struct {
	keywords []string
	command  domain.Command
}

// CommandParser turns a finalised transcript into a playback command.
// "stop" pauses rather than cancels, so the listener can never lose the
// user's place in the recipe.
type CommandParser struct {
	log   *logger.Logger
	rules []commandRule
}

// NewCommandParser creates the keyword command parser.
func NewCommandParser(log *logger.Logger) *CommandParser {
	return &CommandParser{
		log: log,
		rules: []commandRule{
			{keywords: []string{"stop"}, command: domain.CommandPause},
			{keywords: []string{"continue", "resume"}, command: domain.CommandResume},
		},
	}
}

// Parse lower-cases and trims the transcript and returns the matching
// command, or CommandNone.
func (p *CommandParser) Parse(transcript string) domain.Command {
	phrase := strings.ToLower(strings.TrimSpace(transcript))
	if phrase == "" {
		return domain.CommandNone
	}

	for _, rule := range p.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(phrase, kw) {
				p.log.Debug("voice command %q -> %s", phrase, rule.command)
				return rule.command
			}
		}
	}

	p.log.Debug("voice command %q ignored", phrase)
	return domain.CommandNone
}
