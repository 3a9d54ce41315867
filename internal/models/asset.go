package models

import "time"

// Asset roles describe how an image or PDF is used in the case study.
const (
	RoleBefore      = "before"
	RoleAfter       = "after"
	RoleBeforeAfter = "before-after"
	RoleExploration = "exploration"
	RoleFinal       = "final"
	RoleProcess     = "process"
	RoleOther       = "other"
)

// ValidAssetRoles returns all valid asset roles.
func ValidAssetRoles() []string {
	return []string{
		RoleBefore, RoleAfter, RoleBeforeAfter,
		RoleExploration, RoleFinal, RoleProcess, RoleOther,
	}
}

// Asset is the metadata record for an uploaded image or PDF. Filenames
// are globally unique via a millisecond-timestamp prefix added at
// upload time.
type Asset struct {
	Filename  string `gorm:"primaryKey;size:255" json:"filename"`
	ProjectID string `gorm:"size:100;index" json:"-"`

	UploadedAt     string   `gorm:"size:40" json:"uploadedAt"`
	Role           string   `gorm:"size:20" json:"role"`
	SuggestedName  string   `gorm:"size:255" json:"suggestedName"`
	LinkedEntries  []string `gorm:"serializer:json" json:"linkedEntries"`
	LinkedSections []string `gorm:"serializer:json" json:"linkedSections"`
	AltText        string   `gorm:"size:500" json:"altText"`
	Tags           []string `gorm:"serializer:json" json:"tags"`
	FileSize       int64    `json:"fileSize"`
	Dimensions     string   `gorm:"size:20" json:"dimensions,omitempty"`
	URL            string   `gorm:"size:500" json:"url,omitempty"`

	RemoteSha string     `gorm:"size:64" json:"-"`
	SyncedAt  *time.Time `json:"-"`
}

// TableName specifies the table name for GORM.
func (Asset) TableName() string {
	return "assets"
}

// AssetBlob holds the binary payload of an asset, stored separately
// from the metadata so listing assets never loads image bytes.
type AssetBlob struct {
	Filename  string `gorm:"primaryKey;size:255" json:"filename"`
	ProjectID string `gorm:"size:100;index" json:"project_id"`
	MimeType  string `gorm:"size:100" json:"mime_type"`
	Data      []byte `gorm:"type:blob" json:"-"`
}

// TableName specifies the table name for GORM.
func (AssetBlob) TableName() string {
	return "asset_blobs"
}
