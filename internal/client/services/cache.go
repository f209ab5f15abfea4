package services

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

var recordCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gatelog",
	Subsystem: "record_cache",
	Name:      "lookups_total",
	Help:      "Record detail cache lookups by result.",
}, []string{"result"})

// recordCache keeps recently viewed records for the current session
// generation. Entries from an older generation are never returned.
type recordCache struct {
	lru *expirable.LRU[string, cachedRecord]
}

type cachedRecord struct {
	rec        models.VehicleRecord
	generation uint64
}

// newRecordCache returns nil when size is not positive, which disables
// caching.
func newRecordCache(size int, ttl time.Duration) *recordCache {
	if size <= 0 {
		return nil
	}
	return &recordCache{lru: expirable.NewLRU[string, cachedRecord](size, nil, ttl)}
}

func (c *recordCache) get(id string, generation uint64) (*models.VehicleRecord, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.lru.Get(id)
	if !ok || e.generation != generation {
		recordCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	recordCacheLookups.WithLabelValues("hit").Inc()
	rec := e.rec
	return &rec, true
}

func (c *recordCache) put(rec models.VehicleRecord, generation uint64) {
	if c == nil || rec.ID == "" {
		return
	}
	c.lru.Add(rec.ID, cachedRecord{rec: rec, generation: generation})
}

func (c *recordCache) remove(id string) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}

func (c *recordCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
