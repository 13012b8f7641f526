// Package reaper evicts mid-game disconnects that outlive the grace window.
package reaper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Evictor removes a participant from a lobby. since is the disconnect moment on record, so a
// lobby can ignore evictions for a participant that has since reconnected.
type Evictor interface {
	Evict(code, identity string, since time.Time)
}

type key struct {
	code     string
	identity string
}

type Record struct {
	Code           string
	Identity       string
	DisconnectedAt time.Time
}

type Reaper struct {
	mu      sync.Mutex
	records map[key]time.Time
	grace   time.Duration
	log     *zap.Logger
}

func New(grace time.Duration, log *zap.Logger) *Reaper {
	return &Reaper{
		records: make(map[key]time.Time),
		grace:   grace,
		log:     log,
	}
}

// Track records (or refreshes) a disconnect.
func (r *Reaper) Track(code, identity string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key{code, identity}] = at
}

func (r *Reaper) Forget(code, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key{code, identity})
}

func (r *Reaper) ForgetLobby(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.records {
		if k.code == code {
			delete(r.records, k)
		}
	}
}

func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Sweep removes every record older than the grace window at now and hands it to ev.
// Records are dropped before eviction, so each one is evicted at most once.
func (r *Reaper) Sweep(now time.Time, ev Evictor) []Record {
	r.mu.Lock()
	var expired []Record
	for k, at := range r.records {
		if now.Sub(at) > r.grace {
			expired = append(expired, Record{Code: k.code, Identity: k.identity, DisconnectedAt: at})
			delete(r.records, k)
		}
	}
	r.mu.Unlock()

	for _, rec := range expired {
		r.log.Info("evicting disconnected participant",
			zap.String("code", rec.Code),
			zap.String("identity", rec.Identity),
			zap.Duration("gone", now.Sub(rec.DisconnectedAt)),
		)
		ev.Evict(rec.Code, rec.Identity, rec.DisconnectedAt)
	}
	return expired
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context, interval time.Duration, ev Evictor) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.Sweep(now, ev)
		}
	}
}
