package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper is the part of a session store the janitor needs.
type Sweeper interface {
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
}

// Janitor periodically drops idle workspaces from a store.
type Janitor struct {
	store    Sweeper
	ttl      time.Duration
	interval time.Duration

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewJanitor creates a stopped janitor for store.
func NewJanitor(store Sweeper, ttl, interval time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Only the first call starts a goroutine.
func (j *Janitor) Start() {
	j.startOnce.Do(func() {
		go j.run()
	})
}

func (j *Janitor) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.interval)
			removed, err := j.store.Sweep(ctx, j.ttl)
			cancel()
			if err != nil {
				log.Printf("[SessionStore] ⚠️ Sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[SessionStore] 🧹 Expired %d idle workspaces", removed)
			}
		}
	}
}

// Close stops the loop and waits for it to exit.
func (j *Janitor) Close() error {
	j.closeOnce.Do(func() {
		close(j.stop)
		// A janitor that never started has nothing to wait for.
		j.startOnce.Do(func() { close(j.done) })
		<-j.done
	})
	return nil
}
