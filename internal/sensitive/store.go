// Package sensitive stages the fields of a proposal that stay off the shared
// ledger record until the acceptance saga projects them into role views.
package sensitive

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shriya-upadhyay/meridian/internal/metrics"
	"github.com/shriya-upadhyay/meridian/internal/models"
)

const defaultShards = 32

// Store maps txId to its sensitive bundle. Keys are spread over independently
// locked shards so sagas on unrelated transactions never contend.
type Store struct {
	shards []*shard
	ttl    time.Duration
	now    func() time.Time

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	running atomic.Bool
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	bundle   models.SensitiveBundle
	storedAt time.Time
}

type Option func(*Store)

// WithTTL expires entries older than ttl on the next sweep. Zero disables
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithShards(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.shards = newShards(n)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		shards: newShards(defaultShards),
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]entry)}
	}
	return shards
}

func (s *Store) shardFor(txID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(txID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Put stages a bundle, replacing any previous one for the same txId.
func (s *Store) Put(txID string, bundle models.SensitiveBundle) {
	sh := s.shardFor(txID)
	sh.mu.Lock()
	_, existed := sh.entries[txID]
	sh.entries[txID] = entry{bundle: bundle, storedAt: s.now()}
	sh.mu.Unlock()

	if !existed {
		metrics.SensitiveEntries.Inc()
	}
}

// Get reads a bundle without removing it.
func (s *Store) Get(txID string) (models.SensitiveBundle, bool) {
	sh := s.shardFor(txID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.entries[txID]
	return e.bundle, ok
}

// Delete removes the bundle and reports whether one was present.
func (s *Store) Delete(txID string) bool {
	sh := s.shardFor(txID)
	sh.mu.Lock()
	_, ok := sh.entries[txID]
	delete(sh.entries, txID)
	sh.mu.Unlock()

	if ok {
		metrics.SensitiveEntries.Dec()
	}
	return ok
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Sweep drops entries staged before now minus the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for txID, e := range sh.entries {
			if e.storedAt.Before(cutoff) {
				delete(sh.entries, txID)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		metrics.SensitiveEntries.Sub(float64(removed))
		log.Warn().Int("removed", removed).Dur("ttl", s.ttl).Msg("Expired unconsumed sensitive bundles")
	}
	return removed
}

// Run sweeps every interval until ctx is done or Close is called. Without a
// TTL it only waits.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	s.running.Store(true)
	defer close(s.done)

	var tick <-chan time.Time
	if s.ttl > 0 && interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-tick:
			s.Sweep(s.now())
		}
	}
}

// Close stops the sweeper started by Run and waits for it to return.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
	if s.running.Load() {
		<-s.done
	}
}
