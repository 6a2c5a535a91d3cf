package telemetry

import (
	"sync"
	"time"
)

// Origin describes where a device's last report came from.
type Origin struct {
	// Transport is "udp" or "mqtt".
	Transport string `json:"transport"`

	// Source is the UDP remote address or the MQTT topic.
	Source string `json:"source"`

	// ReportedAt is when the report was ingested.
	ReportedAt time.Time `json:"reported_at"`
}

// provenance is a bounded map of device id to last-report origin.
// When the cap is reached, the stalest entry is evicted. The map is
// in-memory only; provenance does not survive a restart.
type provenance struct {
	mu      sync.RWMutex
	entries map[string]Origin
	limit   int
}

func newProvenance(limit int) *provenance {
	return &provenance{
		entries: make(map[string]Origin),
		limit:   limit,
	}
}

func (p *provenance) record(deviceID string, origin Origin) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[deviceID]; !ok && len(p.entries) >= p.limit {
		p.evictStalest()
	}
	p.entries[deviceID] = origin
}

// evictStalest removes the entry with the oldest report time.
// Caller holds the write lock.
func (p *provenance) evictStalest() {
	var stalestID string
	var stalest time.Time
	first := true
	for id, origin := range p.entries {
		if first || origin.ReportedAt.Before(stalest) {
			stalestID, stalest = id, origin.ReportedAt
			first = false
		}
	}
	if stalestID != "" {
		delete(p.entries, stalestID)
	}
}

func (p *provenance) get(deviceID string) (Origin, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	origin, ok := p.entries[deviceID]
	return origin, ok
}

func (p *provenance) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
