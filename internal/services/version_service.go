package services

import (
	"errors"
	"fmt"

	"github.com/collabserve/collabserve/internal/models"
	"gorm.io/gorm"
)

// SnapshotDocument appends an immutable version capturing doc's current
// title and content, attributed to editorID. Callers must invoke this
// before mutating any document field (pre-image semantics) and, when the
// snapshot is part of an update, pass the update's transaction handle so
// both commit as one unit.
func SnapshotDocument(db *gorm.DB, doc *models.Document, editorID string) (uint64, error) {
	ver := models.DocumentVersion{
		DocumentID: doc.ID,
		UserID:     editorID,
		Title:      doc.Title,
		Content:    doc.Content,
	}
	if err := db.Create(&ver).Error; err != nil {
		return 0, fmt.Errorf("failed to snapshot document: %w", err)
	}
	return ver.ID, nil
}

// ListVersions returns every version of an owned document, oldest first.
// The same ownership predicate as GetDocument gates the read, so version
// history is never visible to non-owners. A document with no versions
// yields an empty slice.
func ListVersions(db *gorm.DB, userID string, documentID uint64) ([]models.DocumentVersion, error) {
	if _, err := GetDocument(db, userID, documentID); err != nil {
		return nil, err
	}

	var versions []models.DocumentVersion
	err := db.Where("document_id = ?", documentID).
		Order("created_at ASC, id ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// GetVersion returns one version of an owned document. A version id that
// exists under a different document reads as ErrNotFound.
func GetVersion(db *gorm.DB, userID string, documentID, versionID uint64) (*models.DocumentVersion, error) {
	if _, err := GetDocument(db, userID, documentID); err != nil {
		return nil, err
	}

	var ver models.DocumentVersion
	err := db.Where("id = ? AND document_id = ?", versionID, documentID).First(&ver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return &ver, nil
}
