package server

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/procfs"
)

// DefaultDiagnosticsInterval is the cadence of the self-diagnostic sample.
const DefaultDiagnosticsInterval = 5 * time.Minute

// Diagnostics periodically samples this process's own /proc entry and logs
// open file descriptors and resident memory, a lightweight self-health
// check separate from anything a game or room reports about itself.
type Diagnostics struct {
	log      Loggers
	interval time.Duration
	proc     procfs.Proc
	ok       bool
}

// NewDiagnostics opens this process's procfs entry. If procfs is
// unavailable (e.g. non-Linux), samples are silently skipped rather than
// failing startup.
func NewDiagnostics(log Loggers, interval time.Duration) *Diagnostics {
	if interval <= 0 {
		interval = DefaultDiagnosticsInterval
	}
	d := &Diagnostics{log: log.orDisabled(), interval: interval}
	proc, err := procfs.Self()
	if err != nil {
		d.log.Server.Warnf("diagnostics: procfs unavailable, self-sampling disabled: %v", err)
		return d
	}
	d.proc = proc
	d.ok = true
	return d
}

// Run samples on interval until ctx is cancelled.
func (d *Diagnostics) Run(ctx context.Context) {
	if !d.ok {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sample()
		}
	}
}

func (d *Diagnostics) sample() {
	stat, err := d.proc.Stat()
	if err != nil {
		d.log.Server.Warnf("diagnostics: reading process stat failed: %v", err)
		return
	}
	fds, err := d.proc.FileDescriptorsLen()
	if err != nil {
		fds = -1
	}
	rssBytes := stat.ResidentMemory()
	d.log.Server.Infof("diagnostics: pid=%d rss=%dMiB openFDs=%d", os.Getpid(), rssBytes/(1<<20), fds)
}
