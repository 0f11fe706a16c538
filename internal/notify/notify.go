// Package notify delivers finished quotes to staff.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/logging"
)

// ErrNotConfigured is returned by a notifier that lacks credentials or a
// destination. It counts as a delivery failure.
var ErrNotConfigured = errors.New("notifier not configured")

// Notifier hands a quote to staff.
type Notifier interface {
	Notify(ctx context.Context, q domain.Quote) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, q domain.Quote) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, q domain.Quote) error { return f(ctx, q) }

// Fanout delivers a quote through several notifiers. Delivery succeeds when
// at least one of them succeeds.
type Fanout struct {
	targets []named
	log     *logging.Logger
}

type named struct {
	name string
	n    Notifier
}

// NewFanout creates an empty fanout.
func NewFanout(log *logging.Logger) *Fanout {
	return &Fanout{log: log.Sub("notify")}
}

// Add registers a notifier under name.
func (f *Fanout) Add(name string, n Notifier) {
	f.targets = append(f.targets, named{name: name, n: n})
}

// Len returns the number of registered notifiers.
func (f *Fanout) Len() int { return len(f.targets) }

// Notify tries every notifier in order.
func (f *Fanout) Notify(ctx context.Context, q domain.Quote) error {
	if len(f.targets) == 0 {
		return ErrNotConfigured
	}

	var (
		errs      []error
		delivered int
	)
	for _, t := range f.targets {
		if err := t.n.Notify(ctx, q); err != nil {
			f.log.Warn().Err(err).Str("notifier", t.name).Str("identity", q.Identity).Msg("delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			continue
		}
		delivered++
		f.log.Info().Str("notifier", t.name).Str("identity", q.Identity).Int64("total", q.Result.Total).Msg("quote delivered")
	}
	if delivered > 0 {
		return nil
	}
	return errors.Join(errs...)
}
