package store

import (
	"testing"

	"github.com/citypulse/citypulse/internal/model"
)

func TestEditionCreateAndPublish(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	pub := db.seedPublisher(city.ID, "Gazette", "g@test.com")

	edition, err := db.Editions.Create(pub.ID, "October Issue", "Fall special", "https://cdn.test/oct.pdf", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if edition.Status != model.EditionDraft {
		t.Errorf("status = %q, want %q", edition.Status, model.EditionDraft)
	}
	if edition.PublishDate != nil {
		t.Error("draft should have no publish date")
	}

	if err := db.Editions.Publish(edition.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	published, err := db.Editions.GetByID(edition.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if published.Status != model.EditionPublished {
		t.Errorf("status = %q, want %q", published.Status, model.EditionPublished)
	}
	if published.PublishDate == nil {
		t.Error("published edition should carry a publish date")
	}
}

func TestEditionGetPublicJoinsNames(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	pub := db.seedPublisher(city.ID, "Gazette", "g@test.com")

	edition, err := db.Editions.Create(pub.ID, "October Issue", "", "https://cdn.test/oct.pdf", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Drafts are not publicly visible.
	hidden, err := db.Editions.GetPublic(edition.ID)
	if err != nil {
		t.Fatalf("get public draft: %v", err)
	}
	if hidden != nil {
		t.Error("draft edition must not be publicly readable")
	}

	if err := db.Editions.Publish(edition.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	visible, err := db.Editions.GetPublic(edition.ID)
	if err != nil {
		t.Fatalf("get public: %v", err)
	}
	if visible == nil {
		t.Fatal("published edition should be publicly readable")
	}
	if visible.PublisherName != "Gazette" || visible.CityName != "Springfield" {
		t.Errorf("joined names = %q, %q", visible.PublisherName, visible.CityName)
	}
}

func TestEditionGetOwnedScopesByCity(t *testing.T) {
	db := setupTestDB(t)
	springfield := db.seedCity("Springfield")
	shelbyville := db.seedCity("Shelbyville")
	pub := db.seedPublisher(springfield.ID, "Gazette", "g@test.com")

	edition, err := db.Editions.Create(pub.ID, "October Issue", "", "https://cdn.test/oct.pdf", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	owned, err := db.Editions.GetOwned(edition.ID, springfield.ID)
	if err != nil {
		t.Fatalf("get owned: %v", err)
	}
	if owned == nil {
		t.Fatal("owner city should see its edition")
	}

	foreign, err := db.Editions.GetOwned(edition.ID, shelbyville.ID)
	if err != nil {
		t.Fatalf("get foreign: %v", err)
	}
	if foreign != nil {
		t.Error("edition must not be visible outside its city")
	}
}

func TestEditionUpdate(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	pub := db.seedPublisher(city.ID, "Gazette", "g@test.com")

	edition, err := db.Editions.Create(pub.ID, "Draft title", "", "https://cdn.test/a.pdf", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "October Issue"
	desc := "Fall special"
	updated, err := db.Editions.Update(edition.ID, EditionUpdate{Title: &title, Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Description != desc {
		t.Errorf("got %q / %q", updated.Title, updated.Description)
	}
	if updated.PDFURL != edition.PDFURL {
		t.Error("pdf url changed unexpectedly")
	}
}

func TestEditionDelete(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	pub := db.seedPublisher(city.ID, "Gazette", "g@test.com")

	edition, err := db.Editions.Create(pub.ID, "October Issue", "", "https://cdn.test/oct.pdf", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Editions.Delete(edition.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := db.Editions.GetByID(edition.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("deleted edition still readable")
	}
}
