package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/example/blazehunter/internal/services"
	"github.com/example/blazehunter/internal/state"
)

// Refresher is the single consumer of change notifications. Every notification
// triggers a full refetch of its table; the applied result is announced to
// browsers as a refresh event.
type Refresher struct {
	app     *state.App
	gateway services.Gateway
	broker  *Broker
	queue   chan Notification
	log     zerolog.Logger
}

func NewRefresher(app *state.App, gw services.Gateway, broker *Broker, log zerolog.Logger) *Refresher {
	return &Refresher{
		app:     app,
		gateway: gw,
		broker:  broker,
		queue:   make(chan Notification, 64),
		log:     log,
	}
}

// Queue is the channel sources write to.
func (r *Refresher) Queue() chan<- Notification {
	return r.queue
}

// Notify implements services.ChangeNotifier. A full queue drops the
// notification; one already waiting covers the same refetch.
func (r *Refresher) Notify(_ context.Context, table string) error {
	select {
	case r.queue <- Notification{Table: table, Event: "LOCAL"}:
	default:
		r.log.Debug().Str("table", table).Msg("refresh already queued")
	}
	return nil
}

// Prime performs the initial load of both tables.
func (r *Refresher) Prime(ctx context.Context) error {
	if _, err := r.app.RefreshItems(ctx, r.gateway); err != nil {
		r.log.Error().Err(err).Msg("initial item fetch failed")
		return err
	}
	if _, err := r.app.RefreshSettings(ctx, r.gateway); err != nil {
		r.log.Warn().Err(err).Msg("initial home settings fetch failed")
	}
	return nil
}

// Run drains the queue until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-r.queue:
			r.handle(ctx, n)
		}
	}
}

func (r *Refresher) handle(ctx context.Context, n Notification) {
	var (
		applied bool
		err     error
	)

	switch n.Table {
	case TableItems:
		applied, err = r.app.RefreshItems(ctx, r.gateway)
	case TableSettings:
		applied, err = r.app.RefreshSettings(ctx, r.gateway)
	default:
		return
	}

	if err != nil {
		r.log.Warn().Err(err).Str("table", n.Table).Msg("refresh failed")
		return
	}
	if !applied {
		return
	}

	r.log.Debug().Str("table", n.Table).Str("event", n.Event).Msg("refreshed")
	if r.broker != nil {
		r.broker.Publish(ctx, Event{Type: "refresh", Payload: n})
	}
}

// Pump forwards a source into the refresher and returns when the source does.
func (r *Refresher) Pump(ctx context.Context, src Source) error {
	return src.Run(ctx, r.queue)
}
