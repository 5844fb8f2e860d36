package services_test

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/collabserve/collabserve/internal/models"
	"github.com/collabserve/collabserve/internal/services"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Auto-migrate models
	err = db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.DocumentVersion{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := services.RegisterUser(db, email, "Secret#123")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}
	return user
}

func TestCreateDocument(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, err := services.CreateDocument(db, user.ID, "Notes", "hello")
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if doc.ID == 0 {
		t.Error("Expected a non-zero document id")
	}
	if doc.UserID != user.ID {
		t.Errorf("Expected owner %s, got %s", user.ID, doc.UserID)
	}

	// A new document has no versions yet
	var n int64
	db.Model(&models.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&n)
	if n != 0 {
		t.Errorf("Expected 0 versions for a new document, got %d", n)
	}
}

func TestCreateDocumentRequiresTitle(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	for _, title := range []string{"", "   "} {
		if _, err := services.CreateDocument(db, user.ID, title, "content"); !errors.Is(err, services.ErrValidation) {
			t.Errorf("Expected ErrValidation for title %q, got %v", title, err)
		}
	}
}

func TestListDocumentsScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	services.CreateDocument(db, alice.ID, "A1", "")
	services.CreateDocument(db, alice.ID, "A2", "")
	services.CreateDocument(db, bob.ID, "B1", "")

	docs, err := services.ListDocuments(db, alice.ID)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].Title != "A1" || docs[1].Title != "A2" {
		t.Errorf("Expected creation order A1, A2, got %s, %s", docs[0].Title, docs[1].Title)
	}

	empty, err := services.ListDocuments(db, "nobody")
	if err != nil {
		t.Fatalf("ListDocuments for unknown owner failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty list for unknown owner, got %d", len(empty))
	}
}

func TestGetDocumentOwnership(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	doc, _ := services.CreateDocument(db, alice.ID, "Private", "secret")

	got, err := services.GetDocument(db, alice.ID, doc.ID)
	if err != nil {
		t.Fatalf("Owner lookup failed: %v", err)
	}
	if got.Content != "secret" {
		t.Errorf("Expected content %q, got %q", "secret", got.Content)
	}

	// A non-owner cannot distinguish someone else's document from a
	// missing one.
	if _, err := services.GetDocument(db, bob.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-owner, got %v", err)
	}
	if _, err := services.GetDocument(db, alice.ID, 99999); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing id, got %v", err)
	}
}

func TestUpdateDocumentSnapshotsPreImage(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Notes", "a")

	if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", "ab"); err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", "abc"); err != nil {
		t.Fatalf("Second update failed: %v", err)
	}

	got, _ := services.GetDocument(db, user.ID, doc.ID)
	if got.Content != "abc" {
		t.Errorf("Expected content %q, got %q", "abc", got.Content)
	}

	// Each update captured the state it replaced, in order.
	versions, err := services.ListVersions(db, user.ID, doc.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if versions[0].Content != "a" || versions[1].Content != "ab" {
		t.Errorf("Expected version contents [a ab], got [%s %s]", versions[0].Content, versions[1].Content)
	}
}

func TestUpdateDocumentFalsyKeep(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Original Title", "original content")

	// Empty title means "no change"
	got, err := services.UpdateDocument(db, user.ID, doc.ID, "", "new content")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "Original Title" {
		t.Errorf("Empty title should keep the old one, got %q", got.Title)
	}
	if got.Content != "new content" {
		t.Errorf("Expected content %q, got %q", "new content", got.Content)
	}

	// Empty content means "no change" too; a field can never be cleared
	got, err = services.UpdateDocument(db, user.ID, doc.ID, "New Title", "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("Expected title %q, got %q", "New Title", got.Title)
	}
	if got.Content != "new content" {
		t.Errorf("Empty content should keep the old one, got %q", got.Content)
	}
}

func TestUpdateDocumentNonOwner(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	doc, _ := services.CreateDocument(db, alice.ID, "Notes", "a")

	if _, err := services.UpdateDocument(db, bob.ID, doc.ID, "hacked", "hacked"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for non-owner update, got %v", err)
	}

	// The failed attempt left no version behind
	var n int64
	db.Model(&models.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&n)
	if n != 0 {
		t.Errorf("Expected 0 versions after rejected update, got %d", n)
	}
}

func TestDeleteDocumentRetainsHistory(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Notes", "a")
	services.UpdateDocument(db, user.ID, doc.ID, "", "ab")

	if err := services.DeleteDocument(db, user.ID, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := services.GetDocument(db, user.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := services.DeleteDocument(db, user.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}

	// Snapshots outlive the document they captured
	var n int64
	db.Model(&models.DocumentVersion{}).Where("document_id = ?", doc.ID).Count(&n)
	if n != 1 {
		t.Errorf("Expected 1 retained version after delete, got %d", n)
	}
}

func TestRestoreDocument(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Notes", "a")
	services.UpdateDocument(db, user.ID, doc.ID, "", "ab")
	services.UpdateDocument(db, user.ID, doc.ID, "", "abc")

	versions, _ := services.ListVersions(db, user.ID, doc.ID)
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}

	// Restore the oldest state
	got, err := services.RestoreDocument(db, user.ID, doc.ID, versions[0].ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got.Content != "a" {
		t.Errorf("Expected restored content %q, got %q", "a", got.Content)
	}

	// Restoring does not rewrite history
	after, _ := services.ListVersions(db, user.ID, doc.ID)
	if len(after) != len(versions) {
		t.Errorf("Expected version count unchanged by restore, got %d -> %d", len(versions), len(after))
	}
}

func TestRestoreDocumentScopedVersionLookup(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	docA, _ := services.CreateDocument(db, user.ID, "A", "a1")
	docB, _ := services.CreateDocument(db, user.ID, "B", "b1")
	services.UpdateDocument(db, user.ID, docB.ID, "", "b2")

	versionsB, _ := services.ListVersions(db, user.ID, docB.ID)
	if len(versionsB) != 1 {
		t.Fatalf("Expected 1 version for B, got %d", len(versionsB))
	}

	// A version id from another document reads as missing
	if _, err := services.RestoreDocument(db, user.ID, docA.ID, versionsB[0].ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for cross-document version id, got %v", err)
	}
}

func TestListVersionsOwnership(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	doc, _ := services.CreateDocument(db, alice.ID, "Notes", "a")
	services.UpdateDocument(db, alice.ID, doc.ID, "", "ab")

	if _, err := services.ListVersions(db, bob.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-owner version list, got %v", err)
	}

	// A document with no versions yields an empty slice
	fresh, _ := services.CreateDocument(db, alice.ID, "Fresh", "")
	versions, err := services.ListVersions(db, alice.ID, fresh.ID)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("Expected empty version list, got %d", len(versions))
	}
}

func TestGetVersion(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Notes", "a")
	services.UpdateDocument(db, user.ID, doc.ID, "", "ab")

	versions, _ := services.ListVersions(db, user.ID, doc.ID)
	ver, err := services.GetVersion(db, user.ID, doc.ID, versions[0].ID)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}
	if ver.Content != "a" {
		t.Errorf("Expected version content %q, got %q", "a", ver.Content)
	}
	if ver.UserID != user.ID {
		t.Errorf("Expected editor %s, got %s", user.ID, ver.UserID)
	}

	if _, err := services.GetVersion(db, user.ID, doc.ID, 99999); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing version, got %v", err)
	}
}

func TestSnapshotCountMatchesUpdates(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "owner@example.com")

	doc, _ := services.CreateDocument(db, user.ID, "Notes", "v0")
	const updates = 10
	for i := 0; i < updates; i++ {
		if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", "next"); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}

	versions, _ := services.ListVersions(db, user.ID, doc.ID)
	if len(versions) != updates {
		t.Errorf("Expected exactly %d versions, got %d", updates, len(versions))
	}
}
