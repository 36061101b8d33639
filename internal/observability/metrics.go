package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	syncRuns      map[string]int64
	syncedRecords map[string]int64
	lastSync      *SyncObservation
}

// SyncObservation describes the most recent finished sync run.
type SyncObservation struct {
	Mode       string        `json:"mode"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"duration_ns"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	SyncRuns      map[string]int64 `json:"sync_runs"`
	SyncedRecords map[string]int64 `json:"synced_records"`
	LastSync      *SyncObservation `json:"last_sync,omitempty"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		syncRuns:      make(map[string]int64),
		syncedRecords: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSync counts a finished sync run and the records it wrote.
func (m *Metrics) RecordSync(mode, status string, duration time.Duration, issues, accounts, messages int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncRuns[mode+"|"+status]++
	m.syncedRecords["issues"] += int64(issues)
	m.syncedRecords["accounts"] += int64(accounts)
	m.syncedRecords["messages"] += int64(messages)
	m.lastSync = &SyncObservation{
		Mode:       mode,
		Status:     status,
		Duration:   duration,
		FinishedAt: time.Now().UTC(),
	}
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		SyncRuns:      copyCounts(m.syncRuns),
		SyncedRecords: copyCounts(m.syncedRecords),
	}
	if m.lastSync != nil {
		last := *m.lastSync
		snap.LastSync = &last
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
