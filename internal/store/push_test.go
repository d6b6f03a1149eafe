package store

import (
	"testing"

	"github.com/citypulse/citypulse/internal/model"
)

func TestPushUpsertDuplicateEndpoint(t *testing.T) {
	db := setupTestDB(t)
	reader := db.seedReader("reader@test.com")

	first, err := db.Push.Upsert(reader.ID, "https://push.test/ep1", "p256dh", "auth")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second, err := db.Push.Upsert(reader.ID, "https://push.test/ep1", "p256dh", "auth")
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Error("re-registering an endpoint should keep the original row")
	}
}

func TestPushListActiveByCity(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	other := db.seedCity("Shelbyville")
	plan := db.seedPlan(city.ID, "Monthly", 500)
	otherPlan := db.seedPlan(other.ID, "Monthly", 500)

	subscribed := db.seedReader("subscribed@test.com")
	lapsed := db.seedReader("lapsed@test.com")
	elsewhere := db.seedReader("elsewhere@test.com")

	db.seedActiveSubscription(subscribed.ID, plan.ID, "sub_ok")
	db.seedActiveSubscription(lapsed.ID, plan.ID, "sub_lapsed")
	db.seedActiveSubscription(elsewhere.ID, otherPlan.ID, "sub_other")
	if _, err := db.Subscriptions.ApplyProviderUpdate("sub_lapsed", model.SubStatusCanceled, nil, 50); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	for i, u := range []*model.User{subscribed, lapsed, elsewhere} {
		if _, err := db.Push.Upsert(u.ID, "https://push.test/ep"+string(rune('a'+i)), "k", "a"); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	recipients, err := db.Push.ListActiveByCity(city.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recipients) != 1 {
		t.Fatalf("len = %d, want 1", len(recipients))
	}
	if recipients[0].UserID != subscribed.ID {
		t.Errorf("recipient = %q, want the active subscriber", recipients[0].UserID)
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	db := setupTestDB(t)
	reader := db.seedReader("reader@test.com")

	if _, err := db.Push.Upsert(reader.ID, "https://push.test/dead", "k", "a"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.Push.DeleteByEndpoint("https://push.test/dead"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := db.Push.GetByEndpoint("https://push.test/dead")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("endpoint should be gone")
	}
}
