package integration

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/collabserve/collabserve/internal/config"
	"github.com/collabserve/collabserve/internal/database"
	"github.com/collabserve/collabserve/internal/services"
	"github.com/collabserve/collabserve/tests/helpers"
)

// TestWithMariaDB runs the document lifecycle against a real MariaDB
// container. The row locking taken by updates is only meaningful on a real
// server, so the concurrency assertions live here rather than in the
// SQLite-backed unit tests.
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testContainers, err := helpers.CreateDBTestContainer(t)
	if err != nil {
		t.Fatalf("Failed to create test containers: %v", err)
	}
	defer testContainers.Terminate(t)

	// Connect as root so migrations can manage the schema
	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            testContainers.DBHost,
		DBPort:            testContainers.DBPort,
		DBDatabase:        "collabserve",
		DBUser:            "root",
		DBPassword:        "root",
		DBConnectionLimit: 10,
		JWTSecret:         "integration-test-secret",
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Run("DocumentLifecycle", func(t *testing.T) {
		user, err := services.RegisterUser(db, "lifecycle@example.com", helpers.RandomPassword())
		if err != nil {
			t.Fatalf("Failed to register user: %v", err)
		}

		doc, err := services.CreateDocument(db, user.ID, "Notes", "a")
		if err != nil {
			t.Fatalf("Failed to create document: %v", err)
		}

		if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", "ab"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", "abc"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

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

		restored, err := services.RestoreDocument(db, user.ID, doc.ID, versions[0].ID)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if restored.Content != "a" {
			t.Errorf("Expected restored content %q, got %q", "a", restored.Content)
		}

		if err := services.DeleteDocument(db, user.ID, doc.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := services.GetDocument(db, user.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if n := helpers.CountVersions(t, db, doc.ID); n != 2 {
			t.Errorf("Expected 2 retained versions after delete, got %d", n)
		}
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		user := helpers.CreateTestUser(t, db, "concurrent@example.com", helpers.RandomPassword())
		doc := helpers.CreateTestDocument(t, db, user.ID, "Contended", "v0")

		// Row locking serializes the writers: every update must snapshot
		// exactly the state it replaced. Each writer submits a unique
		// payload, so the snapshot chain must be v0 followed by a
		// permutation of the writer payloads minus whichever landed last.
		// A duplicated captured content means two transactions read the
		// same stale pre-image.
		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := services.UpdateDocument(db, user.ID, doc.ID, "", fmt.Sprintf("writer-%d", i)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("Concurrent update failed: %v", err)
		}

		if n := helpers.CountVersions(t, db, doc.ID); n != writers {
			t.Errorf("Expected %d versions for %d updates, got %d", writers, writers, n)
		}

		versions, err := services.ListVersions(db, user.ID, doc.ID)
		if err != nil {
			t.Fatalf("ListVersions failed: %v", err)
		}
		captured := make(map[string]bool, len(versions))
		for _, v := range versions {
			if captured[v.Content] {
				t.Errorf("Two versions captured the same content %q: a snapshot read a stale pre-image", v.Content)
			}
			captured[v.Content] = true
		}

		// The chain is exactly the initial content plus every writer's
		// payload except the one still live on the document.
		final, err := services.GetDocument(db, user.ID, doc.ID)
		if err != nil {
			t.Fatalf("GetDocument failed: %v", err)
		}
		expected := map[string]bool{"v0": true}
		for i := 0; i < writers; i++ {
			expected[fmt.Sprintf("writer-%d", i)] = true
		}
		delete(expected, final.Content)
		for content := range expected {
			if !captured[content] {
				t.Errorf("Expected a version capturing %q, found none", content)
			}
		}
		for content := range captured {
			if !expected[content] {
				t.Errorf("Unexpected version content %q", content)
			}
		}
	})

	t.Run("ConcurrentRegistration", func(t *testing.T) {
		// The unique index on email arbitrates the race: exactly one
		// registration wins and every loser gets the duplicate error,
		// not a raw constraint violation.
		const racers = 4
		password := helpers.RandomPassword()
		results := make(chan error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := services.RegisterUser(db, "race@example.com", password)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var wins, dups int
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, services.ErrDuplicateEmail):
				dups++
			default:
				t.Errorf("Losing registration surfaced %v, want ErrDuplicateEmail", err)
			}
		}
		if wins != 1 {
			t.Errorf("Expected exactly 1 winning registration, got %d", wins)
		}
		if dups != racers-1 {
			t.Errorf("Expected %d duplicate rejections, got %d", racers-1, dups)
		}
	})

	t.Run("OwnershipIsolation", func(t *testing.T) {
		alice := helpers.CreateTestUser(t, db, "alice-iso@example.com", helpers.RandomPassword())
		bob := helpers.CreateTestUser(t, db, "bob-iso@example.com", helpers.RandomPassword())
		doc := helpers.CreateTestDocument(t, db, alice.ID, "Private", "secret")

		if _, err := services.GetDocument(db, bob.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for non-owner, got %v", err)
		}
		if _, err := services.ListVersions(db, bob.ID, doc.ID); !errors.Is(err, services.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for non-owner version list, got %v", err)
		}
	})
}
