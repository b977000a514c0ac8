package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/octobees/user-directory/api/internal/client"
	"github.com/octobees/user-directory/api/internal/entity"
)

// Snapshot is everything a presentation layer needs to render the directory.
type Snapshot struct {
	State          LoadState     `json:"state"`
	Loading        bool          `json:"loading"`
	Error          string        `json:"error,omitempty"`
	Filters        Filters       `json:"filters"`
	CityOptions    []string      `json:"city_options"`
	CompanyOptions []string      `json:"company_options"`
	Users          []entity.User `json:"users"`
	Total          int           `json:"total"`
	Showing        int           `json:"showing"`
	NoResults      bool          `json:"no_results"`
}

// Summary renders the result count line.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("Showing %d of %d users", s.Showing, s.Total)
}

// FilterUpdate carries a partial filter change; nil fields are left untouched.
type FilterUpdate struct {
	NameQuery *string
	City      *string
	Company   *string
}

// View binds one load cycle to one filter state and memoizes the derived outputs.
type View struct {
	loader *Loader

	mu         sync.Mutex
	result     LoadResult
	source     []entity.User
	generation uint64
	filters    Filters

	optionsValid bool
	optionsGen   uint64
	cities       []string
	companies    []string

	filteredValid  bool
	filteredGen    uint64
	filteredKey    Filters
	filtered       []entity.User
	recomputations int

	subscribers map[int]func(Snapshot)
	nextSubID   int
	closed      bool
	unmounted   chan struct{}
}

// NewView creates a view whose loader fetches from fetcher. Observers passed in
// opts run before the view applies a transition.
func NewView(fetcher client.UsersFetcher, opts ...LoaderOption) *View {
	v := &View{
		result:      LoadResult{State: StateIdle, Users: []entity.User{}},
		source:      []entity.User{},
		subscribers: make(map[int]func(Snapshot)),
		unmounted:   make(chan struct{}),
	}
	loaderOpts := append(append([]LoaderOption{}, opts...), WithObserver(v.onLoad))
	v.loader = NewLoader(fetcher, loaderOpts...)
	return v
}

// Mount starts the view's single load cycle.
func (v *View) Mount(ctx context.Context) {
	v.loader.Start(ctx)
}

// Close tears the view down: subscribers are dropped and any pending load is cancelled.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.subscribers = make(map[int]func(Snapshot))
	close(v.unmounted)
	v.mu.Unlock()

	v.loader.Cancel()
}

// Closed is closed once the view has been torn down.
func (v *View) Closed() <-chan struct{} {
	return v.unmounted
}

// Done is closed when the load cycle reaches a terminal state.
func (v *View) Done() <-chan struct{} {
	return v.loader.Done()
}

// Subscribe registers fn to receive a snapshot after every change.
func (v *View) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return func() {}
	}
	id := v.nextSubID
	v.nextSubID++
	v.subscribers[id] = fn

	return func() {
		v.mu.Lock()
		delete(v.subscribers, id)
		v.mu.Unlock()
	}
}

// SetNameQuery updates the free-text name search.
func (v *View) SetNameQuery(q string) {
	v.SetFilters(FilterUpdate{NameQuery: &q})
}

// SetCity updates the selected city.
func (v *View) SetCity(city string) {
	v.SetFilters(FilterUpdate{City: &city})
}

// SetCompany updates the selected company.
func (v *View) SetCompany(company string) {
	v.SetFilters(FilterUpdate{Company: &company})
}

// ClearFilters resets all filters in a single update.
func (v *View) ClearFilters() {
	empty := ""
	v.SetFilters(FilterUpdate{NameQuery: &empty, City: &empty, Company: &empty})
}

// SetFilters applies every non-nil field of u as one update.
func (v *View) SetFilters(u FilterUpdate) {
	v.mu.Lock()
	next := v.filters
	if u.NameQuery != nil {
		next.NameQuery = *u.NameQuery
	}
	if u.City != nil {
		next.City = *u.City
	}
	if u.Company != nil {
		next.Company = *u.Company
	}
	if next == v.filters {
		v.mu.Unlock()
		return
	}
	v.filters = next
	v.publishLocked()
}

// Filters returns the current filter state.
func (v *View) Filters() Filters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters
}

// Snapshot derives the current outputs, reusing memoized values when inputs are unchanged.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Recomputations reports how many times the filtered list has been derived.
func (v *View) Recomputations() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recomputations
}

func (v *View) onLoad(result LoadResult) {
	v.mu.Lock()
	v.result = result
	if result.State == StateSuccess {
		v.source = result.Users
		v.generation++
	}
	v.publishLocked()
}

// publishLocked must be called with v.mu held; it releases the lock before
// invoking subscribers.
func (v *View) publishLocked() {
	if v.closed || len(v.subscribers) == 0 {
		v.mu.Unlock()
		return
	}
	snap := v.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(v.subscribers))
	for _, fn := range v.subscribers {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (v *View) snapshotLocked() Snapshot {
	if !v.optionsValid || v.optionsGen != v.generation {
		v.cities = CityOptions(v.source)
		v.companies = CompanyOptions(v.source)
		v.optionsGen = v.generation
		v.optionsValid = true
	}
	if !v.filteredValid || v.filteredGen != v.generation || v.filteredKey != v.filters {
		v.filtered = Apply(v.source, v.filters)
		v.filteredGen = v.generation
		v.filteredKey = v.filters
		v.filteredValid = true
		v.recomputations++
	}

	return Snapshot{
		State:          v.result.State,
		Loading:        v.result.Loading,
		Error:          v.result.Error,
		Filters:        v.filters,
		CityOptions:    v.cities,
		CompanyOptions: v.companies,
		Users:          v.filtered,
		Total:          len(v.source),
		Showing:        len(v.filtered),
		NoResults:      v.result.State == StateSuccess && len(v.filtered) == 0,
	}
}
