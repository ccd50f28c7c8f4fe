// Package jobs owns the periodic monitoring timers and the per-domain
// checkers they drive.
package jobs

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fleetops/internal/config"
	"github.com/fleetops/fleetops/internal/database"
)

// Notifier receives alerts that were just created or advanced tier.
// *notify.Dispatcher satisfies it; tests substitute a recorder.
type Notifier interface {
	Dispatch(alert *database.AlertRecord, policy config.EscalationPolicy)
}

// CheckFunc runs one detection pass for a domain and returns how many
// alerts it raised or advanced.
type CheckFunc func() (int, error)

type scheduledCheck struct {
	name     string
	interval time.Duration
	fn       CheckFunc
}

// Monitor runs registered checks on independent jittered timers. Each
// check's ticks run synchronously in its own goroutine, so ticks for one
// domain never overlap while different domains run concurrently.
type Monitor struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
	checks  []scheduledCheck
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Register adds a named check with its polling interval. Must be called
// before Start.
func (m *Monitor) Register(name string, interval time.Duration, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if interval <= 0 {
		interval = time.Minute
	}
	m.checks = append(m.checks, scheduledCheck{name: name, interval: interval, fn: fn})
}

// Start launches the timers. Calling Start while already running is a
// no-op: the running flag, not caller discipline, prevents duplicates.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		log.Printf("Monitor: already running, ignoring Start")
		return
	}
	m.running = true
	m.stop = make(chan struct{})

	for _, c := range m.checks {
		m.wg.Add(1)
		go m.runLoop(c, m.stop)
	}
	log.Printf("Monitor: started %d checks", len(m.checks))
}

// Stop cancels all timers and waits for in-flight ticks. Safe to call
// even if the monitor was never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
	log.Printf("Monitor: stopped")
}

// IsRunning reports whether the timers are active
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) runLoop(c scheduledCheck, stop <-chan struct{}) {
	defer m.wg.Done()

	// Initial jitter of up to 10% of the interval spreads the first ticks
	// so the domains don't all hit the store at once.
	jitter := time.Duration(rand.Int63n(int64(c.interval)/10 + 1))
	select {
	case <-time.After(jitter):
	case <-stop:
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	m.runCheck(c)
	for {
		select {
		case <-ticker.C:
			m.runCheck(c)
		case <-stop:
			return
		}
	}
}

// runCheck runs one tick with a panic guard: a programming error is fatal
// only for that tick, and the next tick proceeds on schedule.
func (m *Monitor) runCheck(c scheduledCheck) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Monitor: %s check panicked: %v", c.name, r)
		}
	}()

	raised, err := c.fn()
	if err != nil {
		log.Printf("Monitor: %s check error: %v", c.name, err)
		return
	}
	if raised > 0 {
		log.Printf("Monitor: %s check raised or advanced %d alerts", c.name, raised)
	}
}

// RegisterDefaultChecks wires the standard checkers for every monitored
// domain using their configured policies.
func RegisterDefaultChecks(m *Monitor, deps Deps) {
	policies := deps.Policies
	m.Register(config.DomainVisits, policies.Get(config.DomainVisits).CheckInterval(),
		NewLateVisitChecker(deps.DB, policies.Get(config.DomainVisits), deps.Notifier).Check)
	m.Register(config.DomainMessages, policies.Get(config.DomainMessages).CheckInterval(),
		NewMessageChecker(deps.DB, policies.Get(config.DomainMessages), deps.Notifier).Check)
	m.Register(config.DomainVehicles, policies.Get(config.DomainVehicles).CheckInterval(),
		NewVehicleChecker(deps.DB, policies.Get(config.DomainVehicles), deps.Notifier).Check)
	m.Register(config.DomainStock, policies.Get(config.DomainStock).CheckInterval(),
		NewStockChecker(deps.DB, policies.Get(config.DomainStock), deps.Notifier).Check)
	m.Register(config.DomainDeliveries, policies.Get(config.DomainDeliveries).CheckInterval(),
		NewDeliveryChecker(deps.DB, policies.Get(config.DomainDeliveries), deps.Notifier).Check)
	m.Register(config.DomainSync, policies.Get(config.DomainSync).CheckInterval(),
		NewSyncChecker(deps.DB, policies.Get(config.DomainSync), deps.Notifier, deps.Retention).Check)
}

// Deps carries what the default checkers need
type Deps struct {
	DB        *gorm.DB
	Policies  config.Policies
	Notifier  Notifier
	Retention time.Duration
}
