package runguard

import (
	"context"
	"time"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
)

// Guard decides whether the batch runs in the current ISO week. It assumes a
// single active instance per marker store; there is no locking.
type Guard struct {
	store MarkerStore
	now   func() time.Time
	log   logger.Logger

	// marker seen by the last ShouldRun that returned true
	prev      Week
	prevFound bool
}

type Option func(*Guard)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger overrides the package logger
func WithLogger(log logger.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

func New(store MarkerStore, opts ...Option) *Guard {
	g := &Guard{
		store: store,
		now:   time.Now,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// ShouldRun returns true at most once per ISO week while the marker is
// readable. An unreadable marker favours running over starving.
func (g *Guard) ShouldRun(ctx context.Context) bool {
	errFactory := errors.New()
	current := WeekOf(g.now())

	last, found, err := g.store.Load(ctx)
	if err != nil {
		g.log.Warn().Err(errFactory.Wrap(errors.ErrMarkerIO, err)).
			Str("week", current.String()).
			Msg("Run marker unreadable, running anyway; a duplicate weekly run is possible")
		g.prev, g.prevFound = Week{}, false
		g.save(ctx, current)
		return true
	}

	if found && last.Same(current) {
		g.log.Debug().
			Str("week", current.String()).
			Msg("Batch already executed this week")
		return false
	}

	g.prev, g.prevFound = last, found
	g.save(ctx, current)
	g.log.Info().
		Str("week", current.String()).
		Str("previous", previous(last, found)).
		Msg("New week, batch scheduled")

	return true
}

func (g *Guard) save(ctx context.Context, week Week) {
	if err := g.store.Save(ctx, week); err != nil {
		g.log.Warn().
			Err(errors.New().Wrap(errors.ErrMarkerIO, err)).
			Str("week", week.String()).
			Msg("Failed to persist run marker")
	}
}

// Rollback undoes the marker written by the last ShouldRun so the next cycle
// runs again. Without a previous marker the prior ISO week is written.
func (g *Guard) Rollback(ctx context.Context) {
	week := g.prev
	if !g.prevFound {
		week = WeekOf(g.now().AddDate(0, 0, -7))
	}

	g.log.Info().
		Str("week", week.String()).
		Msg("Rolling back run marker")
	g.save(ctx, week)
}

func previous(w Week, found bool) string {
	if !found {
		return "none"
	}

	return w.String()
}

// Close releases the underlying store
func (g *Guard) Close() error {
	return g.store.Close()
}
