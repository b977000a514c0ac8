package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/user-directory/api/internal/client"
	"github.com/octobees/user-directory/api/internal/entity"
)

// LoadState is the lifecycle stage of a load cycle.
type LoadState string

const (
	StateIdle      LoadState = "idle"
	StateLoading   LoadState = "loading"
	StateSuccess   LoadState = "success"
	StateFailed    LoadState = "failed"
	StateCancelled LoadState = "cancelled"
)

// Terminal reports whether no further transition can follow s.
func (s LoadState) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateCancelled
}

// FallbackErrorMessage is reported when a failure carries no message of its own.
const FallbackErrorMessage = "Failed to load users"

// LoadResult is the observable output of a Loader.
type LoadResult struct {
	State   LoadState     `json:"state"`
	Loading bool          `json:"loading"`
	Users   []entity.User `json:"-"`
	Error   string        `json:"error,omitempty"`
}

// Loader runs a single fetch of the user collection.
type Loader struct {
	fetcher   client.UsersFetcher
	delay     time.Duration
	observers []func(LoadResult)
	logger    *zap.Logger

	// notifyMu is taken before mu and held while observers run, so they see
	// transitions in the order they were committed.
	notifyMu sync.Mutex

	mu      sync.Mutex
	result  LoadResult
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// LoaderOption configures optional loader behaviour.
type LoaderOption func(*Loader)

// WithDelay holds a successful result in the loading state for d before exposing it.
func WithDelay(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.delay = d
		}
	}
}

// WithObserver registers fn to receive every state transition, in registration order.
// fn must not call Start or Cancel.
func WithObserver(fn func(LoadResult)) LoaderOption {
	return func(l *Loader) {
		if fn != nil {
			l.observers = append(l.observers, fn)
		}
	}
}

// WithLogger overrides the no-op logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates an idle loader backed by fetcher.
func NewLoader(fetcher client.UsersFetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		result:  LoadResult{State: StateIdle, Users: []entity.User{}},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start enters the loading state and begins the load cycle. Only the first call has any effect.
func (l *Loader) Start(ctx context.Context) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.result = LoadResult{State: StateLoading, Loading: true, Users: []entity.User{}}
	snapshot := l.result
	l.mu.Unlock()

	l.notify(snapshot)
	go l.run(ctx, cancel)
}

// Cancel aborts the in-flight request and delay. Once it returns, the loader
// never reports success or failure.
func (l *Loader) Cancel() {
	l.mu.Lock()
	if !l.started {
		l.started = true
		l.result = LoadResult{State: StateCancelled, Users: []entity.User{}}
		close(l.done)
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	l.cancelled()
}

// Result returns the current load state.
func (l *Loader) Result() LoadResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// Done is closed once the loader reaches a terminal state.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

func (l *Loader) run(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	start := time.Now()
	users, err := l.fetcher.FetchUsers(ctx)
	if ctx.Err() != nil {
		l.cancelled()
		return
	}
	if err != nil {
		msg := errorMessage(err)
		if l.transition(func(LoadResult) LoadResult {
			return LoadResult{State: StateFailed, Loading: false, Users: []entity.User{}, Error: msg}
		}) {
			l.logger.Warn("users load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		}
		return
	}

	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.cancelled()
			return
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		l.cancelled()
		return
	}

	if users == nil {
		users = []entity.User{}
	}
	if l.transition(func(LoadResult) LoadResult {
		return LoadResult{State: StateSuccess, Loading: false, Users: users}
	}) {
		l.logger.Info("users loaded", zap.Int("count", len(users)), zap.Duration("elapsed", time.Since(start)))
	}
}

func (l *Loader) cancelled() {
	if l.transition(func(r LoadResult) LoadResult {
		return LoadResult{State: StateCancelled, Loading: r.Loading, Users: r.Users}
	}) {
		l.logger.Debug("users load cancelled")
	}
}

// transition applies next only while the loader is still loading. Observers
// see a terminal result before Done is closed.
func (l *Loader) transition(next func(LoadResult) LoadResult) bool {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if l.result.State != StateLoading {
		l.mu.Unlock()
		return false
	}
	result := next(l.result)
	l.result = result
	l.mu.Unlock()

	l.notify(result)
	if result.State.Terminal() {
		close(l.done)
	}
	return true
}

func (l *Loader) notify(result LoadResult) {
	for _, fn := range l.observers {
		fn(result)
	}
}

func errorMessage(err error) string {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}
