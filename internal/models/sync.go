package models

import (
	"encoding/json"
	"time"
)

// EntityKind identifies which resource a sync operation targets.
type EntityKind string

const (
	KindProject EntityKind = "project"
	KindJournal EntityKind = "journal"
	KindAsset   EntityKind = "asset"
)

// SyncAction is the mutation a sync operation replays.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

// SyncStatus is the state of a queued operation.
type SyncStatus string

const (
	StatusPending   SyncStatus = "pending"
	StatusSyncing   SyncStatus = "syncing"
	StatusCompleted SyncStatus = "completed"
	StatusFailed    SyncStatus = "failed"
)

// MaxSyncAttempts is the attempt count at which an operation stops
// being retried automatically. It remains in the queue for manual
// retry; it is never discarded.
const MaxSyncAttempts = 3

// SyncOperation is one pending mutation awaiting replay against the
// remote store. Operations are immutable apart from their status
// bookkeeping fields.
type SyncOperation struct {
	ID        string     `gorm:"primaryKey;size:40" json:"id"`
	Kind      EntityKind `gorm:"size:20;index" json:"kind"`
	Action    SyncAction `gorm:"size:10" json:"action"`
	EntityID  string     `gorm:"size:255" json:"entity_id"`
	ProjectID string     `gorm:"size:100;index" json:"project_id"`

	// Payload is the JSON body sent to the remote API for this mutation.
	Payload json.RawMessage `gorm:"type:text" json:"payload"`

	// DependsOn lists operation IDs that must reach completed before
	// this one may be attempted. Dependencies always reference
	// operations enqueued earlier, so cycles cannot form.
	DependsOn []string `gorm:"serializer:json" json:"depends_on"`

	Status    SyncStatus `gorm:"size:12;index:idx_queue_status_created" json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `gorm:"size:1000" json:"last_error,omitempty"`

	CreatedAt   time.Time  `gorm:"index:idx_queue_status_created" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (SyncOperation) TableName() string {
	return "sync_queue"
}

// IsTerminal reports whether the operation has finished successfully.
func (op *SyncOperation) IsTerminal() bool {
	return op.Status == StatusCompleted
}

// IsCancelable reports whether the operation may be deleted outright.
// Only pending and failed operations can be cancelled; an in-flight
// network call is never interrupted.
func (op *SyncOperation) IsCancelable() bool {
	return op.Status == StatusPending || op.Status == StatusFailed
}

// SyncConflict pairs a blocked update operation with the remote state
// it collided with. Conflicts live for the current session only; see
// syncer.ConflictStore.
type SyncConflict struct {
	OperationID string          `json:"operation_id"`
	Kind        EntityKind      `json:"kind"`
	EntityID    string          `json:"entity_id"`
	ProjectID   string          `json:"project_id"`
	Local       json.RawMessage `json:"local"`
	Remote      json.RawMessage `json:"remote"`
	RemoteSha   string          `json:"remote_sha"`
	DetectedAt  time.Time       `json:"detected_at"`
}

// SyncMeta stores sync metadata as key-value pairs.
type SyncMeta struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SyncMeta) TableName() string {
	return "sync_meta"
}

// Common sync meta keys.
const (
	SyncMetaLastSync      = "last_sync"
	SyncMetaSchemaVersion = "schema_version"
	SyncMetaTrackingID    = "tracking_id"
)
