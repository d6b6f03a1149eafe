package store

import (
	"testing"

	"github.com/citypulse/citypulse/internal/model"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)

	user, err := db.Users.Create("reader@test.com", "hash", "Test Reader", model.RoleReader)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == "" {
		t.Error("expected generated id")
	}

	byEmail, err := db.Users.GetByEmail("reader@test.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Error("lookup by email failed")
	}

	exists, err := db.Users.EmailExists("reader@test.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if !exists {
		t.Error("email should exist")
	}
	exists, err = db.Users.EmailExists("nobody@test.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if exists {
		t.Error("unknown email should not exist")
	}
}

func TestUserGetByIDMissing(t *testing.T) {
	db := setupTestDB(t)

	user, err := db.Users.GetByID("no-such-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user != nil {
		t.Error("expected nil for unknown id")
	}
}
