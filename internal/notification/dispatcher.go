package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fsanano/food-market/internal/model"
)

type RecordStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

type Broadcaster interface {
	Broadcast(ctx context.Context, p Push) error
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type Dispatcher struct {
	records     RecordStore
	broadcaster Broadcaster
	mailer      Mailer
	appURL      string
	log         logrus.FieldLogger
	now         func() time.Time

	inflight sync.WaitGroup
}

func NewDispatcher(records RecordStore, broadcaster Broadcaster, mailer Mailer, appURL string, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		records:     records,
		broadcaster: broadcaster,
		mailer:      mailer,
		appURL:      appURL,
		log:         log,
		now:         time.Now,
	}
}

// Dispatch delivers ev on every channel if the target is eligible. It reports
// whether delivery was attempted. Channels are delivered independently; a
// failure on one does not stop or undo the others.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (bool, error) {
	if err := ev.validate(); err != nil {
		return false, err
	}
	if !ShouldSend(ev.Target) {
		return false, nil
	}

	r, err := Render(ev, d.appURL, d.now())
	if err != nil {
		return false, err
	}

	log := d.log.WithFields(logrus.Fields{
		"notification_id": r.Record.ID,
		"type":            ev.Type,
		"user_id":         ev.Target.ID,
	})

	var g errgroup.Group
	g.Go(func() error {
		if err := d.records.CreateNotification(ctx, r.Record); err != nil {
			log.WithError(err).Warn("notification record not stored")
			return fmt.Errorf("failed to store notification: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := d.broadcaster.Broadcast(ctx, r.Push); err != nil {
			log.WithError(err).Warn("notification push not broadcast")
			return fmt.Errorf("failed to broadcast notification: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := d.mailer.Send(ctx, r.Email); err != nil {
			log.WithError(err).Warn("notification email not sent")
			return fmt.Errorf("failed to mail notification: %w", err)
		}
		return nil
	})

	return true, g.Wait()
}

// Notify dispatches ev in the background, detached from ctx cancellation.
// Wait drains the deliveries it started.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if _, err := d.Dispatch(ctx, ev); err != nil {
			d.log.WithError(err).WithField("type", ev.Type).Debug("notification dispatch incomplete")
		}
	}()
}

// Wait blocks until every background delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifications still in flight: %w", ctx.Err())
	}
}
