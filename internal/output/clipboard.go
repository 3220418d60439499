// Package output holds adapters that hand results to the rest of the
// desktop.
package output

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/hammamikhairi/cookassist/internal/domain"
	"github.com/hammamikhairi/cookassist/internal/logger"
)

// Compile-time interface check.
var _ domain.Clipboard = (*SystemClipboard)(nil)

// SystemClipboard writes to the OS clipboard (pbcopy, xclip/xsel,
// wl-copy or the Windows API, whichever atotto/clipboard finds).
type SystemClipboard struct {
	log *logger.Logger
}

// NewSystemClipboard creates a clipboard adapter.
func NewSystemClipboard(log *logger.Logger) *SystemClipboard {
	return &SystemClipboard{log: log}
}

// Available reports whether a clipboard utility was found.
func (c *SystemClipboard) Available() error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard: %w", domain.ErrUnsupported)
	}
	return nil
}

// WriteText replaces the clipboard contents with text.
func (c *SystemClipboard) WriteText(text string) error {
	if err := c.Available(); err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	c.log.Debug("copied %d chars to clipboard", len(text))
	return nil
}
