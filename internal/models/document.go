package models

import (
	"time"
)

// Document represents the current, mutable state of one collaboratively
// edited text. Content is only ever changed through the document service,
// which records a pre-update snapshot first.
type Document struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"userId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Versions []DocumentVersion `gorm:"foreignKey:DocumentID" json:"-"`
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}
