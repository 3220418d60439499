package domain

import "time"

// HistoryEntry records one finished submission. Entries live in process
// memory only.
type HistoryEntry struct {
	ID          string
	Ingredients string
	Text        string
	Failed      bool
	CreatedAt   time.Time
}
