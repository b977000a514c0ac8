package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/user-directory/api/internal/client"
	"github.com/octobees/user-directory/api/internal/directory"
	"github.com/octobees/user-directory/api/internal/metrics"
)

// ErrNotFound is returned when no live session matches the identifier.
var ErrNotFound = errors.New("session not found")

// Session is one mounted directory view.
type Session struct {
	ID        string
	View      *directory.View
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Registry owns the mounted views. Load cycles run on the registry context, so
// they outlive the request that mounted them and stop when the registry closes.
type Registry struct {
	ctx        context.Context
	fetcher    client.UsersFetcher
	ttl        time.Duration
	loaderOpts []directory.LoaderOption
	logger     *zap.Logger
	now        func() time.Time

	mu         sync.Mutex
	sessions   map[string]*Session
	onTeardown []func(id string)
}

// NewRegistry creates a registry whose views fetch from fetcher and live for ttl.
func NewRegistry(ctx context.Context, fetcher client.UsersFetcher, ttl time.Duration, logger *zap.Logger, opts ...directory.LoaderOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		ctx:        ctx,
		fetcher:    fetcher,
		ttl:        ttl,
		loaderOpts: opts,
		logger:     logger,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
}

// OnTeardown registers fn to run with the id of every session that is torn down.
func (r *Registry) OnTeardown(fn func(id string)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.onTeardown = append(r.onTeardown, fn)
	r.mu.Unlock()
}

// Mount creates a session and starts its load cycle.
func (r *Registry) Mount() *Session {
	r.Sweep()

	now := r.now()
	id := uuid.NewString()
	log := r.logger.With(zap.String("session_id", id))

	opts := append(append([]directory.LoaderOption{}, r.loaderOpts...),
		directory.WithLogger(log),
		directory.WithObserver(func(res directory.LoadResult) {
			if res.State.Terminal() {
				metrics.ObserveLoad(string(res.State), time.Since(now))
			}
		}),
	)
	sess := &Session{
		ID:        id,
		View:      directory.NewView(r.fetcher, opts...),
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	metrics.SessionMounted()
	sess.View.Mount(r.ctx)
	log.Info("session mounted")
	return sess
}

// Get returns the live session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok && !r.now().Before(sess.ExpiresAt) {
		delete(r.sessions, id)
		r.mu.Unlock()
		r.teardown(sess, "session expired")
		return nil, ErrNotFound
	}
	r.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Unmount tears the session down, cancelling any load still in flight.
func (r *Registry) Unmount(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	r.teardown(sess, "session unmounted")
	return nil
}

// Sweep unmounts expired sessions and reports how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if !now.Before(sess.ExpiresAt) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		r.teardown(sess, "session expired")
	}
	return len(expired)
}

// Len reports the number of mounted sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close unmounts every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		r.teardown(sess, "session closed")
	}
}

func (r *Registry) teardown(sess *Session, reason string) {
	sess.View.Close()
	metrics.SessionUnmounted()

	r.mu.Lock()
	hooks := append([]func(string){}, r.onTeardown...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn(sess.ID)
	}
	r.logger.Info(reason, zap.String("session_id", sess.ID))
}
