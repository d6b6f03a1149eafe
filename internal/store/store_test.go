package store

import (
	"testing"
	"time"

	"github.com/citypulse/citypulse/internal/database"
	"github.com/citypulse/citypulse/internal/model"
)

func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testDB{
		t:             t,
		Users:         NewUserStore(db),
		Cities:        NewCityStore(db),
		Publishers:    NewPublisherStore(db),
		Plans:         NewPlanStore(db),
		Editions:      NewEditionStore(db),
		Subscriptions: NewSubscriptionStore(db),
		Push:          NewPushStore(db),
		WebhookEvents: NewWebhookEventStore(db),
	}
}

type testDB struct {
	t             *testing.T
	Users         *UserStore
	Cities        *CityStore
	Publishers    *PublisherStore
	Plans         *PlanStore
	Editions      *EditionStore
	Subscriptions *SubscriptionStore
	Push          *PushStore
	WebhookEvents *WebhookEventStore
}

func (d *testDB) seedCity(name string) *model.City {
	d.t.Helper()
	city, err := d.Cities.Create(name, "US")
	if err != nil {
		d.t.Fatalf("seed city: %v", err)
	}
	return city
}

func (d *testDB) seedPublisher(cityID, name, email string) *model.Publisher {
	d.t.Helper()
	pub, err := d.Publishers.CreateWithOwner(cityID, name, email, "hash", model.LicenseActive)
	if err != nil {
		d.t.Fatalf("seed publisher: %v", err)
	}
	return pub
}

func (d *testDB) seedPlan(cityID, name string, price int64) *model.Plan {
	d.t.Helper()
	plan, err := d.Plans.Create(cityID, name, "", price, model.IntervalMonth, "price_"+name)
	if err != nil {
		d.t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func (d *testDB) seedReader(email string) *model.User {
	d.t.Helper()
	user, err := d.Users.Create(email, "hash", "Reader", model.RoleReader)
	if err != nil {
		d.t.Fatalf("seed reader: %v", err)
	}
	return user
}

func (d *testDB) seedActiveSubscription(userID, planID, stripeSubID string) {
	d.t.Helper()
	created, err := d.Subscriptions.CreateFromCheckout(userID, planID, stripeSubID, "cus_test", time.Time{}, 1)
	if err != nil {
		d.t.Fatalf("seed subscription: %v", err)
	}
	if !created {
		d.t.Fatalf("seed subscription: row not created")
	}
}
