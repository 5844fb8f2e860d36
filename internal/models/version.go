package models

import (
	"time"
)

// DocumentVersion is an immutable snapshot of a document's title and content
// taken immediately before an update was applied. UserID attributes the edit
// that triggered the snapshot (the editor, not necessarily the owner).
// Rows are append-only: nothing in the service updates or deletes them, and
// they deliberately survive deletion of the document they snapshot.
//
// Per-document ordering is CreatedAt ascending with ties broken by ID, which
// matches insertion order.
type DocumentVersion struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID uint64    `gorm:"not null;index:idx_version_document,priority:1" json:"documentId"`
	UserID     string    `gorm:"type:char(36);not null" json:"userId"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `gorm:"index:idx_version_document,priority:2" json:"createdAt"`
}

// TableName overrides the table name for DocumentVersion
func (DocumentVersion) TableName() string {
	return "document_versions"
}
