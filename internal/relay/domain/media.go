package domain

import "time"

// MediaAsset is a row in the general asset store. Message media references
// point at assets by object key; assets may also carry their own expiry
// independent of any message.
type MediaAsset struct {
	ID           uint    `gorm:"primaryKey"`
	OwnerID      string  `gorm:"index"`
	ObjectKey    string  `gorm:"uniqueIndex"`
	ThumbnailKey *string // object key of the generated thumbnail, if any
	ContentType  string
	ExpiresAt    *time.Time `gorm:"index"`
	CreatedAt    time.Time
}

// TableName keeps the table name stable regardless of gorm pluralization.
func (MediaAsset) TableName() string {
	return "media_assets"
}
