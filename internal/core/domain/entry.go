package domain

import "time"

// Entry is a single journal entry as the store returns it.
type Entry struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	EntryDate  time.Time `json:"entry_date"`
	SourcePath string    `json:"source_path"`
	SourceType string    `json:"source_type"`
	Tags       []string  `json:"tags"`
}

// Text is the representation used for embedding and keyword matching.
func (e Entry) Text() string {
	return e.Title + " " + e.Body
}

// EntryHit is a full-text match returned by the store. Relevance is nil when
// the store does not rank its matches.
type EntryHit struct {
	Entry     Entry
	Snippet   string
	Relevance *float64
}
