package push

import (
	"context"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/citypulse/citypulse/internal/model"
)

const fanoutConcurrency = 8

// sender delivers one notification. Satisfied by *Service.
type sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// recipientStore is the slice of PushStore the fanout needs.
type recipientStore interface {
	ListActiveByCity(cityID string) ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Fanout delivers a notification to every active subscriber of a city.
// Deliveries run concurrently and independently: one dead or failing
// endpoint never blocks or fails the others. Confirmed-dead endpoints are
// deleted as they are discovered.
type Fanout struct {
	sender sender
	store  recipientStore
	logger *slog.Logger
}

func NewFanout(s sender, store recipientStore, logger *slog.Logger) *Fanout {
	return &Fanout{sender: s, store: store, logger: logger}
}

// NotifyCity sends the payload to all active subscribers of the city and
// returns the number of successful deliveries plus any per-recipient errors
// aggregated. Expired endpoints are cleaned up, not reported as errors.
func (f *Fanout) NotifyCity(ctx context.Context, cityID string, payload Payload) (int, error) {
	subs, err := f.store.ListActiveByCity(cityID)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}

	var mu sync.Mutex
	var sent int
	var errs error

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrency)
	for i := range subs {
		sub := subs[i]
		g.Go(func() error {
			err := f.sender.Send(&sub, payload)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sent++
			case err == ErrExpired:
				if delErr := f.store.DeleteByEndpoint(sub.Endpoint); delErr != nil {
					f.logger.Error("cleanup expired endpoint", "error", delErr)
				} else {
					f.logger.Info("removed expired push endpoint", "endpoint", sub.Endpoint)
				}
			default:
				errs = multierr.Append(errs, err)
			}
			return nil
		})
	}
	g.Wait()

	return sent, errs
}
