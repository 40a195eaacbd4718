package connectivity

import (
	"appero/internal/providers"
	"appero/internal/structures"
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	reachableBit uint32 = 1 << iota
	forceOfflineBit
)

// Prober checks whether the backend can currently be reached.
type Prober interface {
	Probe(ctx context.Context) bool
}

// DialProber treats a successful TCP dial to Addr as reachability.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

func (p *DialProber) Probe(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

type MonitorInterface interface {
	IsConnected() bool
	ForceOffline() bool
	SetReachable(reachable bool)
	SetForceOffline(enabled bool)
	OnReconnect(fn func())
}

// Monitor combines path reachability and the force-offline switch into a
// single word so readers never observe a torn pair.
type Monitor struct {
	state    *atomic.Uint32
	prober   Prober
	interval time.Duration
	logger   providers.Logger

	cbMu      sync.Mutex
	callbacks []func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMonitor(prober Prober, interval time.Duration, logger providers.Logger) *Monitor {
	return &Monitor{
		state:    atomic.NewUint32(reachableBit),
		prober:   prober,
		interval: interval,
		logger:   logger,
	}
}

// NewMonitorFromConfig builds a monitor with a DialProber when a probe address
// is configured.
func NewMonitorFromConfig(conf *structures.Config, logger providers.Logger) *Monitor {
	var prober Prober
	if conf.Connectivity.ProbeAddr != "" {
		prober = &DialProber{Addr: conf.Connectivity.ProbeAddr, Timeout: conf.Connectivity.ProbeTimeout}
	}
	return NewMonitor(prober, conf.Connectivity.ProbeInterval, logger)
}

func (m *Monitor) IsConnected() bool {
	return m.state.Load() == reachableBit
}

func (m *Monitor) ForceOffline() bool {
	return m.state.Load()&forceOfflineBit != 0
}

func (m *Monitor) Reachable() bool {
	return m.state.Load()&reachableBit != 0
}

func (m *Monitor) SetReachable(reachable bool) {
	m.update(reachableBit, reachable)
}

func (m *Monitor) SetForceOffline(enabled bool) {
	m.update(forceOfflineBit, enabled)
}

// OnReconnect registers fn to run on every transition to connected.
func (m *Monitor) OnReconnect(fn func()) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

func (m *Monitor) update(bit uint32, set bool) {
	for {
		old := m.state.Load()
		next := old &^ bit
		if set {
			next = old | bit
		}
		if old == next {
			return
		}
		if !m.state.CompareAndSwap(old, next) {
			continue
		}
		if old != reachableBit && next == reachableBit {
			m.logger.Infof(providers.TypeSync, "Connectivity restored")
			m.fireReconnect()
		} else if old == reachableBit {
			m.logger.Infof(providers.TypeSync, "Connectivity lost (reachable=%t, forceOffline=%t)", next&reachableBit != 0, next&forceOfflineBit != 0)
		}
		return
	}
}

func (m *Monitor) fireReconnect() {
	m.cbMu.Lock()
	callbacks := append([]func(){}, m.callbacks...)
	m.cbMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Start launches the probe loop. Without a prober it does nothing and the
// path is treated as reachable unless SetReachable says otherwise.
func (m *Monitor) Start(ctx context.Context) {
	if m.prober == nil || m.interval <= 0 {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			ok := m.prober.Probe(ctx)
			if ctx.Err() != nil {
				return
			}
			m.SetReachable(ok)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
