// Package summary joins the recent and drought summaries into one
// classified view.
package summary

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pvz-iot/pvz/internal/device"
)

// Source fetches the two aggregate resources. *api.Client satisfies it.
type Source interface {
	RecentSummary(ctx context.Context, env, tenant string) (device.RecentSummary, error)
	DroughtSummary(ctx context.Context, env, tenant string) (device.DroughtSummary, error)
}

// Summary is one successful join of both resources.
type Summary struct {
	Recent  device.RecentSummary
	Drought device.DroughtSummary
	Level   device.DroughtLevel
}

// Aggregator fetches both summaries concurrently. It keeps no state: a
// failed refresh returns an error and the caller decides what to keep
// showing.
type Aggregator struct {
	source Source
}

// New creates an Aggregator.
func New(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Refresh issues both fetches without waiting on each other and returns once
// both have settled. If either fails the whole refresh fails with the first
// error, and the sibling call's context is cancelled.
func (a *Aggregator) Refresh(ctx context.Context, env, tenant string) (Summary, error) {
	var (
		recent  device.RecentSummary
		drought device.DroughtSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recent, err = a.source.RecentSummary(gctx, env, tenant)
		return err
	})
	g.Go(func() error {
		var err error
		drought, err = a.source.DroughtSummary(gctx, env, tenant)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Recent:  recent,
		Drought: drought,
		Level:   device.ClassifyDrought(&drought),
	}, nil
}
