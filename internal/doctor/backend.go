package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/util"
)

// Fleet is the backend surface the checks probe. *api.Client satisfies it.
type Fleet interface {
	Devices(ctx context.Context, env, tenant string) ([]device.Snapshot, error)
	RecentSummary(ctx context.Context, env, tenant string) (device.RecentSummary, error)
	DroughtSummary(ctx context.Context, env, tenant string) (device.DroughtSummary, error)
	DroughtStreak(ctx context.Context, env, tenant, deviceID string) (device.DroughtStreak, error)
	Metrics(ctx context.Context, env, tenant, deviceID string, q api.MetricsQuery) (device.Metrics, error)
}

// Probe is what the backend checks share: the scope and a roster fetched
// once, so the per-device checks know which device to ask about.
type Probe struct {
	Fleet  Fleet
	Env    string
	Tenant string
	Bucket device.Bucket

	once      sync.Once
	roster    []device.Snapshot
	rosterErr error
	latency   time.Duration
}

func (p *Probe) loadRoster(ctx context.Context) ([]device.Snapshot, time.Duration, error) {
	p.once.Do(func() {
		start := time.Now()
		p.roster, p.rosterErr = p.Fleet.Devices(ctx, p.Env, p.Tenant)
		p.latency = time.Since(start)
	})
	return p.roster, p.latency, p.rosterErr
}

// ResourceCheck fetches one backend resource and describes what came back.
type ResourceCheck struct {
	Resource string
	probe    *Probe
	run      func(ctx context.Context, p *Probe) (string, error)
}

func (c *ResourceCheck) Name() string     { return "backend_" + c.Resource }
func (c *ResourceCheck) Category() string { return CategoryBackend }

func (c *ResourceCheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	msg, err := c.run(ctx, c.probe)
	latency := time.Since(start)

	if stderrors.Is(err, errNoDevice) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s: no device to ask about", c.Resource),
			Suggestion: fmt.Sprintf("%s/%s has no devices yet", c.probe.Env, c.probe.Tenant),
		}
	}
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: suggestionOf(err, "Check api.base_url and that the backend is running"),
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: %s (%s)", c.Resource, msg, formatLatency(latency)),
	}
}

var errNoDevice = stderrors.New("no device")

// firstDevice returns the id the per-device checks use.
func firstDevice(ctx context.Context, p *Probe) (string, error) {
	roster, _, err := p.loadRoster(ctx)
	if err != nil {
		return "", err
	}
	if len(roster) == 0 {
		return "", errNoDevice
	}
	return roster[0].ID, nil
}

// NewBackendChecks creates one check per backend resource.
func NewBackendChecks(p *Probe) []Check {
	return []Check{
		&ResourceCheck{Resource: api.ResourceDevices, probe: p, run: checkDevices},
		&ResourceCheck{Resource: api.ResourceRecentSummary, probe: p, run: checkRecentSummary},
		&ResourceCheck{Resource: api.ResourceDroughtSummary, probe: p, run: checkDroughtSummary},
		&ResourceCheck{Resource: api.ResourceDroughtStreak, probe: p, run: checkDroughtStreak},
		&ResourceCheck{Resource: api.ResourceMetrics, probe: p, run: checkMetrics},
	}
}

func checkDevices(ctx context.Context, p *Probe) (string, error) {
	roster, _, err := p.loadRoster(ctx)
	if err != nil {
		return "", err
	}
	online := 0
	for _, d := range roster {
		if d.Online() {
			online++
		}
	}
	return fmt.Sprintf("%s in %s/%s, %d online", util.Count(len(roster), "device"), p.Env, p.Tenant, online), nil
}

func checkRecentSummary(ctx context.Context, p *Probe) (string, error) {
	s, err := p.Fleet.RecentSummary(ctx, p.Env, p.Tenant)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window %s", s.Window()), nil
}

func checkDroughtSummary(ctx context.Context, p *Probe) (string, error) {
	s, err := p.Fleet.DroughtSummary(ctx, p.Env, p.Tenant)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d in drought, level %s", s.DevicesInDrought, device.ClassifyDrought(&s)), nil
}

func checkDroughtStreak(ctx context.Context, p *Probe) (string, error) {
	id, err := firstDevice(ctx, p)
	if err != nil {
		return "", err
	}
	if _, err := p.Fleet.DroughtStreak(ctx, p.Env, p.Tenant, id); err != nil {
		return "", err
	}
	return "streak for " + id, nil
}

func checkMetrics(ctx context.Context, p *Probe) (string, error) {
	id, err := firstDevice(ctx, p)
	if err != nil {
		return "", err
	}
	bucket := p.Bucket
	if bucket == "" {
		bucket = device.BucketHour
	}
	m, err := p.Fleet.Metrics(ctx, p.Env, p.Tenant, id, api.MetricsQuery{Bucket: bucket})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s %s for %s", len(m.Points), bucket, util.Pluralize(len(m.Points), "point", "points"), id), nil
}

func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
