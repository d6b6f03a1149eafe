package push

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/citypulse/citypulse/internal/model"
)

type fakeSender struct {
	mu   sync.Mutex
	errs map[string]error // endpoint -> error to return
	sent []string
}

func (f *fakeSender) Send(sub *model.PushSubscription, payload Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[sub.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, sub.Endpoint)
	return nil
}

type fakeRecipientStore struct {
	mu      sync.Mutex
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakeRecipientStore) ListActiveByCity(cityID string) ([]model.PushSubscription, error) {
	return f.subs, nil
}

func (f *fakeRecipientStore) DeleteByEndpoint(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func subsFor(endpoints ...string) []model.PushSubscription {
	var subs []model.PushSubscription
	for _, ep := range endpoints {
		subs = append(subs, model.PushSubscription{Endpoint: ep, P256dhKey: "k", AuthKey: "a"})
	}
	return subs
}

func TestFanoutDeliversToAll(t *testing.T) {
	store := &fakeRecipientStore{subs: subsFor("ep1", "ep2", "ep3")}
	sender := &fakeSender{}
	f := NewFanout(sender, store, testLogger())

	sent, err := f.NotifyCity(context.Background(), "city-1", Payload{Title: "New edition"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sent != 3 {
		t.Errorf("sent = %d, want 3", sent)
	}
}

func TestFanoutDeletesExpiredEndpoints(t *testing.T) {
	store := &fakeRecipientStore{subs: subsFor("alive", "dead")}
	sender := &fakeSender{errs: map[string]error{"dead": ErrExpired}}
	f := NewFanout(sender, store, testLogger())

	sent, err := f.NotifyCity(context.Background(), "city-1", Payload{Title: "New edition"})
	if err != nil {
		t.Fatalf("expired endpoints must not surface as errors: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "dead" {
		t.Errorf("deleted = %v, want [dead]", store.deleted)
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	store := &fakeRecipientStore{subs: subsFor("ok1", "broken", "ok2")}
	sender := &fakeSender{errs: map[string]error{"broken": errors.New("push service 500")}}
	f := NewFanout(sender, store, testLogger())

	sent, err := f.NotifyCity(context.Background(), "city-1", Payload{Title: "New edition"})
	if err == nil {
		t.Error("expected aggregated error for the failed endpoint")
	}
	if sent != 2 {
		t.Errorf("sent = %d, want the two healthy endpoints delivered", sent)
	}
	if len(store.deleted) != 0 {
		t.Errorf("non-expired failures must not delete endpoints, deleted %v", store.deleted)
	}
}

func TestFanoutNoRecipients(t *testing.T) {
	f := NewFanout(&fakeSender{}, &fakeRecipientStore{}, testLogger())

	sent, err := f.NotifyCity(context.Background(), "city-1", Payload{Title: "New edition"})
	if err != nil || sent != 0 {
		t.Errorf("sent=%d err=%v, want 0, nil", sent, err)
	}
}
