package helpers

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/collabserve/collabserve/internal/models"
)

// CreateTestUser inserts a user directly and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return &user
}

// CreateTestDocument inserts a document owned by the given user
func CreateTestDocument(t *testing.T, db *gorm.DB, userID, title, content string) *models.Document {
	t.Helper()
	doc := models.Document{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	return &doc
}

// CountVersions returns the number of history rows for a document
func CountVersions(t *testing.T, db *gorm.DB, documentID uint64) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.DocumentVersion{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count versions: %v", err)
	}
	return n
}
