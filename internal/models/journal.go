package models

import "time"

// Well-known journal entry tags.
const (
	TagDecision  = "decision"
	TagMilestone = "milestone"
	TagIteration = "iteration"
	TagFeedback  = "feedback"
	TagInsight   = "insight"
	TagBlocker   = "blocker"
)

// EntryContent holds the prompted sections of a journal entry. Entries
// written as free text carry only Text; entries authored against the
// guided prompts populate the named sections.
type EntryContent struct {
	Decision  string `json:"decision,omitempty"`
	Why       string `json:"why,omitempty"`
	Milestone string `json:"milestone,omitempty"`
	Change    string `json:"change,omitempty"`
	Tradeoff  string `json:"tradeoff,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
	Text      string `json:"text,omitempty"`
}

// IsEmpty reports whether no section has content.
func (c EntryContent) IsEmpty() bool {
	return c == EntryContent{}
}

// JournalEntry is one dated entry in a project's journal. Entries are
// keyed by (project, date); the date is an ISO calendar date string and
// unique within a project.
type JournalEntry struct {
	ProjectID string `gorm:"primaryKey;size:100" json:"-"`
	Date      string `gorm:"primaryKey;size:10" json:"date"`

	Tags        []string     `gorm:"serializer:json" json:"tags"`
	Assets      []string     `gorm:"serializer:json" json:"assets"`
	Section     string       `gorm:"size:50" json:"section,omitempty"`
	Content     EntryContent `gorm:"serializer:json" json:"content"`
	RawMarkdown string       `gorm:"type:text" json:"rawMarkdown"`

	RemoteSha string     `gorm:"size:64" json:"-"`
	SyncedAt  *time.Time `json:"-"`
}

// TableName specifies the table name for GORM.
func (JournalEntry) TableName() string {
	return "journal_entries"
}
