package store

import (
	"testing"
	"time"

	"github.com/citypulse/citypulse/internal/model"
)

func TestSubscriptionCreateFromCheckoutIdempotent(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	plan := db.seedPlan(city.ID, "Monthly", 500)
	reader := db.seedReader("reader@test.com")

	created, err := db.Subscriptions.CreateFromCheckout(reader.ID, plan.ID, "sub_abc", "cus_1", time.Time{}, 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatal("first delivery should create a row")
	}

	// Redelivered event: same provider subscription id.
	created, err = db.Subscriptions.CreateFromCheckout(reader.ID, plan.ID, "sub_abc", "cus_1", time.Time{}, 100)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if created {
		t.Error("replay should not create a second row")
	}

	subs, err := db.Subscriptions.ListByUser(reader.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("len = %d, want exactly 1", len(subs))
	}
	if subs[0].Status != model.SubStatusActive {
		t.Errorf("status = %q, want %q", subs[0].Status, model.SubStatusActive)
	}
}

func TestSubscriptionApplyProviderUpdate(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	plan := db.seedPlan(city.ID, "Monthly", 500)
	reader := db.seedReader("reader@test.com")
	db.seedActiveSubscription(reader.ID, plan.ID, "sub_abc")

	periodEnd := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	applied, err := db.Subscriptions.ApplyProviderUpdate("sub_abc", model.SubStatusPastDue, &periodEnd, 200)
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if !applied {
		t.Fatal("update should apply")
	}

	sub, err := db.Subscriptions.GetByStripeID("sub_abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub.Status != model.SubStatusPastDue {
		t.Errorf("status = %q, want %q", sub.Status, model.SubStatusPastDue)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Errorf("current_period_end = %v, want %v", sub.CurrentPeriodEnd, periodEnd)
	}
	if sub.LastEventAt != 200 {
		t.Errorf("last_event_at = %d, want 200", sub.LastEventAt)
	}
}

func TestSubscriptionUpdateUnknownIDIsNoop(t *testing.T) {
	db := setupTestDB(t)

	applied, err := db.Subscriptions.ApplyProviderUpdate("sub_never_seen", model.SubStatusCanceled, nil, 100)
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if applied {
		t.Error("unknown subscription id must be a no-op")
	}
}

func TestSubscriptionStaleEventRejected(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	plan := db.seedPlan(city.ID, "Monthly", 500)
	reader := db.seedReader("reader@test.com")
	db.seedActiveSubscription(reader.ID, plan.ID, "sub_abc")

	applied, err := db.Subscriptions.ApplyProviderUpdate("sub_abc", model.SubStatusCanceled, nil, 300)
	if err != nil || !applied {
		t.Fatalf("newer update: applied=%v err=%v", applied, err)
	}

	// An event that predates the applied one arrives late.
	applied, err = db.Subscriptions.ApplyProviderUpdate("sub_abc", model.SubStatusActive, nil, 250)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if applied {
		t.Error("stale event must not be applied")
	}

	sub, err := db.Subscriptions.GetByStripeID("sub_abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub.Status != model.SubStatusCanceled {
		t.Errorf("status = %q, want %q after rejecting stale event", sub.Status, model.SubStatusCanceled)
	}
}

func TestSubscriptionCountActiveByCity(t *testing.T) {
	db := setupTestDB(t)
	city := db.seedCity("Springfield")
	other := db.seedCity("Shelbyville")
	plan := db.seedPlan(city.ID, "Monthly", 500)
	otherPlan := db.seedPlan(other.ID, "Monthly", 500)

	a := db.seedReader("a@test.com")
	b := db.seedReader("b@test.com")
	c := db.seedReader("c@test.com")
	db.seedActiveSubscription(a.ID, plan.ID, "sub_a")
	db.seedActiveSubscription(b.ID, plan.ID, "sub_b")
	db.seedActiveSubscription(c.ID, otherPlan.ID, "sub_c")

	if _, err := db.Subscriptions.ApplyProviderUpdate("sub_b", model.SubStatusCanceled, nil, 50); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	n, err := db.Subscriptions.CountActiveByCity(city.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
