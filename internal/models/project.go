// Package models defines the core data structures for Casebook.
package models

import "time"

// Project status values.
const (
	ProjectInProgress = "in-progress"
	ProjectCompleted  = "completed"
	ProjectPaused     = "paused"
)

// Timeframe describes when a project ran.
type Timeframe struct {
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
	Status string `json:"status"`
}

// Constraints captures the working constraints of a project.
type Constraints struct {
	Team      string `json:"team"`
	Timeline  string `json:"timeline"`
	Scope     string `json:"scope"`
	Technical string `json:"technical"`
}

// Project is a case-study project as cached locally. The ID is the
// URL-safe slug derived from the project name; it doubles as the
// directory name inside the journal repository.
type Project struct {
	ID           string      `gorm:"primaryKey;size:100" json:"id"`
	Name         string      `gorm:"size:255;index" json:"name"`
	Role         string      `gorm:"size:255" json:"role"`
	Timeframe    Timeframe   `gorm:"serializer:json" json:"timeframe"`
	ProblemSpace string      `gorm:"type:text" json:"problemSpace"`
	Constraints  Constraints `gorm:"serializer:json" json:"constraints"`
	Tags         []string    `gorm:"serializer:json" json:"tags"`

	// Remote timestamps are opaque ISO strings authored by whichever
	// side created the entity; GORM must not touch them.
	CreatedAt string `gorm:"size:40;column:created_at_remote" json:"createdAt"`
	UpdatedAt string `gorm:"size:40;column:updated_at_remote" json:"updatedAt"`

	// Sync bookkeeping. RemoteSha is the version token from the last
	// successful sync; empty means no known remote counterpart yet.
	RemoteSha string     `gorm:"size:64" json:"-"`
	SyncedAt  *time.Time `json:"-"`
}

// TableName specifies the table name for GORM.
func (Project) TableName() string {
	return "projects"
}

// HasRemote reports whether the project has ever been synced to the remote.
func (p *Project) HasRemote() bool {
	return p.RemoteSha != ""
}
