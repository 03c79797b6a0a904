package lib

import (
	"sync"
	"time"
)

// FirstSeenCache remembers when each instance was first seen missing
// from chef. It is safe for concurrent use.
type FirstSeenCache struct {
	mu sync.Mutex
	m  map[string]time.Time
}

// NewFirstSeenCache creates a cache seeded with previously persisted
// entries, which may be nil
func NewFirstSeenCache(seed map[string]time.Time) *FirstSeenCache {
	fsc := &FirstSeenCache{m: map[string]time.Time{}}
	for id, t := range seed {
		fsc.m[id] = t
	}
	return fsc
}

// LoadOrStore returns the cached time for the instance, storing t
// first if there is none
func (fsc *FirstSeenCache) LoadOrStore(instanceID string, t time.Time) time.Time {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	if existing, ok := fsc.m[instanceID]; ok {
		return existing
	}

	fsc.m[instanceID] = t
	return t
}

// Get returns the cached time, if any
func (fsc *FirstSeenCache) Get(instanceID string) (time.Time, bool) {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	t, ok := fsc.m[instanceID]
	return t, ok
}

// Len is the number of cached instances
func (fsc *FirstSeenCache) Len() int {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	return len(fsc.m)
}

// Snapshot copies the cache contents for persisting
func (fsc *FirstSeenCache) Snapshot() map[string]time.Time {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	out := make(map[string]time.Time, len(fsc.m))
	for id, t := range fsc.m {
		out[id] = t
	}
	return out
}

// RecencyFilter decides whether an unregistered instance should be
// reported in the current pass
type RecencyFilter struct {
	Excluded map[string]bool
	Cache    *FirstSeenCache
}

// NewRecencyFilter builds a filter over the given exclusions and cache
func NewRecencyFilter(excluded []string, cache *FirstSeenCache) *RecencyFilter {
	rf := &RecencyFilter{
		Excluded: map[string]bool{},
		Cache:    cache,
	}
	for _, id := range excluded {
		rf.Excluded[id] = true
	}
	return rf
}

// Allow reports whether the instance is due for reporting given the
// since watermark. Excluded instances never touch the cache. A zero
// watermark means nothing has been processed yet, so everything is
// due.
//
// Otherwise an instance only becomes due once its first-seen time is
// at or before the watermark, which delays a fresh instance by one
// full poll cycle so that chef registration has a chance to finish.
func (rf *RecencyFilter) Allow(inst *Instance, since time.Time) bool {
	if rf.Excluded[inst.InstanceID] {
		return false
	}

	if since.IsZero() {
		return true
	}

	candidate := since
	if inst.LaunchTime != nil && inst.LaunchTime.After(since) {
		candidate = *inst.LaunchTime
	}

	firstSeen := rf.Cache.LoadOrStore(inst.InstanceID, candidate)
	return !firstSeen.After(since)
}
