package localstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// memRepo is an in-memory kv.Repository with a value-size quota.
type memRepo struct {
	mu     sync.Mutex
	data   map[string][]byte
	quota  int
	getErr error
	setErr error
	sets   int
}

func newMemRepo(quota int) *memRepo {
	return &memRepo{data: map[string][]byte{}, quota: quota}
}

func (m *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memRepo) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if m.quota > 0 && len(value) > m.quota {
		return fmt.Errorf("set %s: %w", key, common.ErrQuotaExceeded)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func (m *memRepo) Usage(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, v := range m.data {
		n += int64(len(v))
	}
	return n, nil
}

func (m *memRepo) Quota() int64 { return int64(m.quota) }

func (m *memRepo) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memRepo) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

// countingMetrics records calls for assertions.
type countingMetrics struct {
	mu                 sync.Mutex
	corruptionRepaired int
	corruptionReset    int
	bootstraps         int
	quotaShrinks       int
	lastResortWrites   int
	dropped            map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{dropped: map[string]int{}}
}

func (c *countingMetrics) IncCorruptionRepaired() { c.mu.Lock(); c.corruptionRepaired++; c.mu.Unlock() }
func (c *countingMetrics) IncCorruptionReset()    { c.mu.Lock(); c.corruptionReset++; c.mu.Unlock() }
func (c *countingMetrics) IncBootstrap()          { c.mu.Lock(); c.bootstraps++; c.mu.Unlock() }
func (c *countingMetrics) IncQuotaShrink()        { c.mu.Lock(); c.quotaShrinks++; c.mu.Unlock() }
func (c *countingMetrics) IncLastResortWrite()    { c.mu.Lock(); c.lastResortWrites++; c.mu.Unlock() }
func (c *countingMetrics) AddRecordsDropped(collection string, n int) {
	c.mu.Lock()
	c.dropped[collection] += n
	c.mu.Unlock()
}
func (c *countingMetrics) IncPush(bool)                      {}
func (c *countingMetrics) ObservePushDuration(time.Duration) {}
