package form

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Registry keeps the live form sessions of a server, keyed by session id.
type Registry struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(opts Options) *Registry {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Registry{opts: opts, sessions: map[string]*Session{}}
}

// Create starts a session for a client of the given device class. It fails
// with ErrRegistryFull once MaxSessions sessions are live.
func (r *Registry) Create(dc reservation.DeviceClass) (*Session, error) {
	opts := r.opts
	opts.Device = dc

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.MaxSessions > 0 && len(r.sessions) >= r.opts.MaxSessions {
		return nil, ErrRegistryFull
	}
	s := New(uuid.NewString(), opts)
	r.sessions[s.ID()] = s
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions untouched for longer than maxIdle and reports how many went.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > maxIdle {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			if n := r.Sweep(now, maxIdle); n > 0 {
				r.opts.Log.Debug("registry: swept idle sessions", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}
