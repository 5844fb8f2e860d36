package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/collabserve/collabserve/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateDocument persists a new document owned by userID. Content may be
// empty; the title must not be.
func CreateDocument(db *gorm.DB, userID, title, content string) (*models.Document, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	doc := models.Document{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := db.Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return &doc, nil
}

// ListDocuments returns every document owned by userID, oldest first.
// An owner with no documents gets an empty slice, not an error.
func ListDocuments(db *gorm.DB, userID string) ([]models.Document, error) {
	var docs []models.Document
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// GetDocument returns the document with the given id if userID owns it.
// The ownership predicate is folded into the lookup, so a non-owner gets
// ErrNotFound rather than a distinguishable "forbidden".
func GetDocument(db *gorm.DB, userID string, documentID uint64) (*models.Document, error) {
	var doc models.Document
	err := db.Where("id = ? AND user_id = ?", documentID, userID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// UpdateDocument applies a partial update to an owned document. The sequence
// is: lock the row, snapshot the pre-update title/content as a new version
// attributed to userID, then merge and persist. The snapshot and the
// mutation commit or roll back together, so a version row never exists
// without its update and an update never lands without its version.
//
// Merge policy is falsy-keep: an empty string for title or content means
// "no change", exactly like an absent field. An update cannot clear a field.
func UpdateDocument(db *gorm.DB, userID string, documentID uint64, title, content string) (*models.Document, error) {
	var doc models.Document

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", documentID, userID).
			First(&doc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get document: %w", err)
		}

		// Pre-image snapshot. A failure here aborts the whole update.
		if _, err := SnapshotDocument(tx, &doc, userID); err != nil {
			return err
		}

		if title != "" {
			doc.Title = title
		}
		if content != "" {
			doc.Content = content
		}

		if err := tx.Save(&doc).Error; err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// DeleteDocument removes an owned document row. Version history is retained:
// snapshots outlive the document they captured, so a deleted document's
// history stays traversable by id.
func DeleteDocument(db *gorm.DB, userID string, documentID uint64) error {
	result := db.Where("id = ? AND user_id = ?", documentID, userID).Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreDocument overwrites an owned document's title and content with the
// values captured by one of its versions. The version row itself is left
// untouched, as is every other version: restoring does not rewrite history.
//
// Restore does not snapshot the state it overwrites. The state a document
// had immediately before a restore is lost unless the caller updates again
// first. Kept as-is deliberately; see DESIGN.md.
func RestoreDocument(db *gorm.DB, userID string, documentID, versionID uint64) (*models.Document, error) {
	var doc models.Document

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", documentID, userID).
			First(&doc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get document: %w", err)
		}

		// The version lookup is scoped to this document, so a version id
		// belonging to some other document reads as missing.
		var ver models.DocumentVersion
		err = tx.Where("id = ? AND document_id = ?", versionID, documentID).First(&ver).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get version: %w", err)
		}

		doc.Title = ver.Title
		doc.Content = ver.Content

		if err := tx.Save(&doc).Error; err != nil {
			return fmt.Errorf("failed to restore document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &doc, nil
}
