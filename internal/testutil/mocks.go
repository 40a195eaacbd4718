package testutil

import (
	"appero/internal/models"
	"appero/internal/providers"
	"context"
	"net/http"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu          sync.Mutex
	Deliveries  map[string]int // key: "kind:outcome"
	QueueSizes  map[string]int
	Persistence int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persistence++
}
func (m *MockMetrics) ObserveTransportDuration(_ string, _ int, _ time.Duration) {}
func (m *MockMetrics) IncDeliveries(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Deliveries == nil {
		m.Deliveries = make(map[string]int)
	}
	m.Deliveries[kind+":"+outcome]++
}
func (m *MockMetrics) SetQueueSize(kind string, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueueSizes == nil {
		m.QueueSizes = make(map[string]int)
	}
	m.QueueSizes[kind] = size
}
func (m *MockMetrics) Handler() http.Handler { return http.NotFoundHandler() }

func (m *MockMetrics) DeliveryCount(kind, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Deliveries[kind+":"+outcome]
}

// MockCompressor implements the storage compressor with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockStateStore keeps the document in memory.
type MockStateStore struct {
	mu      sync.Mutex
	State   *models.PersistedState
	LoadErr error
	SaveErr error
	Saves   int
	Deletes int
}

func (m *MockStateStore) Load() (*models.PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return models.NewPersistedState(), m.LoadErr
	}
	if m.State == nil {
		return models.NewPersistedState(), nil
	}
	return m.State.Clone(), nil
}

func (m *MockStateStore) Save(state *models.PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.State = state.Clone()
	return nil
}

func (m *MockStateStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	m.State = nil
	return nil
}

func (m *MockStateStore) Saved() *models.PersistedState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State == nil {
		return nil
	}
	return m.State.Clone()
}

// TransportCall is one recorded Send.
type TransportCall struct {
	Endpoint string
	Fields   any
	Method   string
	Token    string
}

// MockTransport records sends and answers through Fn, or with Body/Err.
type MockTransport struct {
	mu    sync.Mutex
	Calls []TransportCall
	Body  []byte
	Err   error
	Fn    func(call TransportCall) ([]byte, error)
}

func (m *MockTransport) Send(_ context.Context, endpoint string, fields any, method, authToken string) ([]byte, error) {
	call := TransportCall{Endpoint: endpoint, Fields: fields, Method: method, Token: authToken}
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	fn, body, err := m.Fn, m.Body, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return body, err
}

func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockTransport) Set(body []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Body, m.Err = body, err
}
