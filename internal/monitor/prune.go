package monitor

import (
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRetention bounds how long a finished TaskRecord survives
// before the scheduled pruning job drops it from the in-memory ring.
const DefaultRetention = 24 * time.Hour

// Pruner periodically evicts aged-out task records on a cron schedule,
// independent of the ring-size cap enforced on every StartTask.
type Pruner struct {
	cron      *cron.Cron
	monitor   *Monitor
	retention time.Duration
}

// NewPruner schedules Monitor.Prune(retention) to run on spec (standard
// five-field cron syntax, e.g. "0 * * * *" for hourly). retention
// defaults to DefaultRetention when zero.
func NewPruner(m *Monitor, spec string, retention time.Duration) (*Pruner, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	p := &Pruner{cron: cron.New(), monitor: m, retention: retention}
	if _, err := p.cron.AddFunc(spec, p.run); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pruner) run() {
	p.monitor.Prune(p.retention)
}

// Start begins the cron scheduler in the background.
func (p *Pruner) Start() { p.cron.Start() }

// Stop halts the scheduler, waiting for any in-flight run to finish.
func (p *Pruner) Stop() { <-p.cron.Stop().Done() }
