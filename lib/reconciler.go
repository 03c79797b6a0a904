package lib

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/gorilla/feeds"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultNodeQuery matches every chef node
	DefaultNodeQuery = "*:*"
)

// Inventory is the source of running cloud instances. Since is the
// watermark of the last successfully processed pass, zero if none.
type Inventory interface {
	FetchInstances(context.Context) ([]*Instance, error)
	Since() time.Time
}

// NodeSource is the source of chef nodes
type NodeSource interface {
	FetchNodes(ctx context.Context, query string) ([]*Node, error)
}

// ReconcilerConfig is everything a Reconciler needs beyond its
// collaborators
type ReconcilerConfig struct {
	ExcludedInstances []string
	NodeQuery         string
	FirstSeen         map[string]time.Time
}

// Reconciler finds running instances that chef does not know about
type Reconciler struct {
	inv   Inventory
	nodes NodeSource
	query string
	cache *FirstSeenCache
	rf    *RecencyFilter
	log   logrus.FieldLogger
}

// NewReconciler builds a *Reconciler, seeding its first-seen cache
// from cfg.FirstSeen
func NewReconciler(inv Inventory, nodes NodeSource, cfg ReconcilerConfig, log logrus.FieldLogger) (*Reconciler, error) {
	if inv == nil {
		return nil, errNilInventory
	}
	if nodes == nil {
		return nil, errNilNodeSource
	}

	query := cfg.NodeQuery
	if query == "" {
		query = DefaultNodeQuery
	}

	cache := NewFirstSeenCache(cfg.FirstSeen)

	return &Reconciler{
		inv:   inv,
		nodes: nodes,
		query: query,
		cache: cache,
		rf:    NewRecencyFilter(cfg.ExcludedInstances, cache),
		log:   log,
	}, nil
}

// FirstSeen snapshots the first-seen cache for persisting
func (r *Reconciler) FirstSeen() map[string]time.Time {
	return r.cache.Snapshot()
}

// Run performs the fetches for one pass and builds the node index. A
// fetch failure returns a *FetchError and leaves the first-seen cache
// untouched. The returned *Pass yields its reports lazily.
func (r *Reconciler) Run(ctx context.Context) (*Pass, error) {
	pass := &Pass{
		ID:      feeds.NewUUID().String(),
		Started: time.Now().UTC(),
		Since:   r.inv.Since(),
		r:       r,
	}

	log := r.log.WithFields(logrus.Fields{
		"pass":  pass.ID,
		"since": pass.Since,
	})

	log.Debug("fetching instances")
	instances, err := r.inv.FetchInstances(ctx)
	if err != nil {
		return nil, &FetchError{Source: "instances", Err: err}
	}

	log.WithField("query", r.query).Debug("fetching chef nodes")
	nodes, err := r.nodes.FetchNodes(ctx, r.query)
	if err != nil {
		return nil, &FetchError{Source: "nodes", Err: err}
	}

	index, skipped := BuildNodeIndex(nodes)
	if skipped > 0 {
		log.WithField("skipped", skipped).Warn("skipped malformed chef nodes")
	}

	pass.instances = instances
	pass.index = index
	pass.stats = PassStats{
		Instances:    len(instances),
		Nodes:        len(nodes),
		SkippedNodes: skipped,
		Addresses:    len(index),
	}

	log.WithFields(logrus.Fields{
		"instances": len(instances),
		"nodes":     len(nodes),
		"addresses": len(index),
	}).Debug("built node index")

	return pass, nil
}

// PassStats counts what happened to each instance of a pass. The
// per-instance counters only cover instances consumed so far.
type PassStats struct {
	Instances    int `json:"instances"`
	Nodes        int `json:"nodes"`
	SkippedNodes int `json:"skipped_nodes"`
	Addresses    int `json:"addresses"`
	Malformed    int `json:"malformed"`
	Registered   int `json:"registered"`
	Excluded     int `json:"excluded"`
	Deferred     int `json:"deferred"`
	Reported     int `json:"reported"`
}

// Pass is a single reconciliation pass over fetched data
type Pass struct {
	ID      string
	Started time.Time
	Since   time.Time

	r         *Reconciler
	instances []*Instance
	index     NodeIndex

	mu       sync.Mutex
	stats    PassStats
	consumed bool
}

// Reports yields a report for every unregistered instance that passes
// the recency filter, in inventory order. A pass can be consumed only
// once; later calls yield nothing.
func (p *Pass) Reports() iter.Seq[*Report] {
	return func(yield func(*Report) bool) {
		p.mu.Lock()
		if p.consumed {
			p.mu.Unlock()
			return
		}
		p.consumed = true
		p.mu.Unlock()

		for _, inst := range p.instances {
			report := p.evaluate(inst)
			if report == nil {
				continue
			}
			if !yield(report) {
				return
			}
		}
	}
}

// Collect drains Reports into a slice
func (p *Pass) Collect() []*Report {
	reports := []*Report{}
	for report := range p.Reports() {
		reports = append(reports, report)
	}
	return reports
}

// Stats returns a copy of the pass counters
func (p *Pass) Stats() PassStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats
}

func (p *Pass) evaluate(inst *Instance) *Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst == nil || inst.InstanceID == "" {
		p.stats.Malformed++
		return nil
	}

	if p.index.Registered(inst) {
		p.stats.Registered++
		return nil
	}

	if p.r.rf.Excluded[inst.InstanceID] {
		p.stats.Excluded++
		return nil
	}

	if !p.r.rf.Allow(inst, p.Since) {
		p.r.log.WithFields(logrus.Fields{
			"pass":        p.ID,
			"instance_id": inst.InstanceID,
		}).Debug("deferring recently seen instance")
		p.stats.Deferred++
		return nil
	}

	p.stats.Reported++
	return NewReport(inst)
}
