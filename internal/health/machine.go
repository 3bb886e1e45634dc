// Package health tracks extraction liveness. Selector rot on the host
// page shows up as silently empty extractions; the heartbeat turns that
// silence into an explicit degraded state and a fire-and-forget report.
package health

import "sync"

// State is the observation session's lifecycle state.
type State string

const (
	StateIdle      State = "idle"      // no chat container located yet
	StateObserving State = "observing" // container found, extraction working
	StateDegraded  State = "degraded"  // container present but heartbeats failing
)

// Machine is the session state machine. Transitions: container-found moves
// idle to observing; container-lost returns to idle; N consecutive
// heartbeat failures mark degraded; one heartbeat success recovers.
// Detection of selector rot is decoupled from reacting to it — a degraded
// session keeps extracting on whatever tier still works.
type Machine struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
}

func NewMachine(failureThreshold int) *Machine {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Machine{state: StateIdle, threshold: failureThreshold}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Failures returns the current consecutive heartbeat failure count.
func (m *Machine) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// ContainerFound transitions idle to observing. Observing and degraded
// states are unaffected: finding the container again says nothing about
// selector health.
func (m *Machine) ContainerFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		m.state = StateObserving
	}
}

// ContainerLost returns to idle and clears the failure streak; absence of
// the container is a transient page state, not selector rot.
func (m *Machine) ContainerLost() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	m.failures = 0
}

// HeartbeatFailed records one failed heartbeat and reports whether the
// streak just crossed the threshold into degraded.
func (m *Machine) HeartbeatFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return false
	}
	m.failures++
	if m.failures >= m.threshold && m.state != StateDegraded {
		m.state = StateDegraded
		return true
	}
	return false
}

// HeartbeatRecovered clears the failure streak and, if degraded, returns
// to observing.
func (m *Machine) HeartbeatRecovered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
	if m.state == StateDegraded {
		m.state = StateObserving
	}
}
