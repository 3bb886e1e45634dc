package health

import (
	"log/slog"
	"sync"
	"time"
)

// SubjectDegraded is the bus subject for degradation reports.
const SubjectDegraded = "hawker.health.degraded"

// Snapshotter supplies the most recent DOM snapshot for heartbeat probing.
type Snapshotter interface {
	Latest() (snapshot string, url string, ok bool)
}

// Prober performs the trivial one-message heartbeat extraction.
type Prober interface {
	Probe(snapshot string) bool
}

// Reporter receives degradation events. Delivery is fire-and-forget; a
// publish failure is logged and dropped.
type Reporter interface {
	Publish(subject string, data any) error
}

// DegradedReport is the payload sent to the telemetry sink.
type DegradedReport struct {
	Platform  string    `json:"platform"`
	Failures  int       `json:"failures"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// Monitor runs the heartbeat on a fixed interval. It must be stopped on
// session teardown or the ticker leaks across page navigations.
type Monitor struct {
	platform string
	machine  *Machine
	source   Snapshotter
	prober   Prober
	reporter Reporter
	interval time.Duration
	logger   *slog.Logger

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewMonitor(platform string, machine *Machine, source Snapshotter, prober Prober, reporter Reporter, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		platform: platform,
		machine:  machine,
		source:   source,
		prober:   prober,
		reporter: reporter,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the heartbeat loop in its own goroutine.
func (m *Monitor) Start() {
	m.ticker = time.NewTicker(m.interval)
	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.Beat()
			case <-m.done:
				return
			}
		}
	}()
	m.logger.Info("health monitor started", "platform", m.platform, "interval", m.interval)
}

// Stop clears the ticker and ends the loop. Safe to call more than once;
// teardown can fire from both navigation and shutdown paths.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
		m.logger.Info("health monitor stopped", "platform", m.platform)
	})
}

// Beat runs one heartbeat: a trivial single-message extraction against the
// latest snapshot. Exposed so ingest paths can piggyback a beat without
// waiting for the ticker.
func (m *Monitor) Beat() {
	snapshot, url, ok := m.source.Latest()
	if !ok {
		m.machine.ContainerLost()
		return
	}
	m.machine.ContainerFound()

	if m.prober.Probe(snapshot) {
		m.machine.HeartbeatRecovered()
		return
	}

	if m.machine.HeartbeatFailed() {
		m.logger.Warn("extraction degraded",
			"platform", m.platform,
			"failures", m.machine.Failures(),
		)
		report := DegradedReport{
			Platform:  m.platform,
			Failures:  m.machine.Failures(),
			Timestamp: time.Now().UTC(),
			URL:       url,
		}
		if err := m.reporter.Publish(SubjectDegraded, report); err != nil {
			m.logger.Error("failed to publish degradation report", "error", err)
		}
	}
}
