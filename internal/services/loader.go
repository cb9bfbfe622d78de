package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"userlist/internal/domain"
)

// DefaultScrollThreshold is the distance to the bottom, in viewport units, at
// which the next page is requested.
const DefaultScrollThreshold = 100

// ScrollMetrics are the measurements a scroll viewport reports.
type ScrollMetrics struct {
	ScrollTop    float64
	ClientHeight float64
	ScrollHeight float64
}

// DistanceToBottom returns how far the viewport's bottom edge is from the end
// of the scrollable content.
func (m ScrollMetrics) DistanceToBottom() float64 {
	return m.ScrollHeight - m.ScrollTop - m.ClientHeight
}

// LoaderStatus is the externally visible state of a Loader.
type LoaderStatus int

const (
	StatusIdle LoaderStatus = iota
	StatusLoading
	StatusExhausted
)

func (s LoaderStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// LoaderState is a point-in-time copy of a Loader's state.
type LoaderState struct {
	Items      []domain.User
	Offset     int
	PageSize   int
	TotalCount int
	Exhausted  bool
	IsLoading  bool
	// Err is the last page fetch failure; nil after a successful page fetch.
	Err error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPageSize sets the number of users requested per page.
func WithPageSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithThreshold sets the proximity-to-bottom distance that triggers a fetch.
func WithThreshold(distance float64) LoaderOption {
	return func(l *Loader) {
		if distance >= 0 {
			l.threshold = distance
		}
	}
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader incrementally loads users into a growing, ordered list as the
// viewport approaches its end. At most one combined fetch is in flight; scroll
// signals that arrive while loading are dropped.
type Loader struct {
	fetcher   domain.UserFetcher
	logger    *slog.Logger
	pageSize  int
	threshold float64

	mu          sync.Mutex
	state       LoaderState
	initialized bool
	disposed    bool
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	listeners   map[int]func()
	nextID      int
}

// NewLoader returns an idle Loader reading from fetcher.
func NewLoader(fetcher domain.UserFetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:   fetcher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		pageSize:  domain.DefaultPageSize,
		threshold: DefaultScrollThreshold,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state.PageSize = l.pageSize
	return l
}

// Initialize mounts the loader and requests the first page together with the
// total count. The loader is in the loading state when Initialize returns.
// Calls after the first, or after Dispose, do nothing.
func (l *Loader) Initialize(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized || l.disposed {
		return
	}
	l.initialized = true
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.startFetchLocked(true)
}

// OnScroll requests the next page when the viewport is within the threshold
// of the bottom, no fetch is in flight and the list is not exhausted.
func (l *Loader) OnScroll(m ScrollMetrics) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized || l.disposed {
		return
	}
	if m.DistanceToBottom() > l.threshold || l.state.IsLoading || l.state.Exhausted {
		return
	}
	l.startFetchLocked(false)
}

func (l *Loader) startFetchLocked(includeCount bool) {
	l.state.IsLoading = true
	done := make(chan struct{})
	l.done = done
	go l.fetchNextPage(l.ctx, l.state.Offset, includeCount, done)
}

type fetchResult struct {
	offset       int
	users        []domain.User
	pageErr      error
	includeCount bool
	count        domain.UserCount
	countErr     error
}

func (l *Loader) fetchNextPage(ctx context.Context, offset int, includeCount bool, done chan struct{}) {
	defer close(done)

	res := fetchResult{offset: offset, includeCount: includeCount}
	var g errgroup.Group
	g.Go(func() error {
		res.users, res.pageErr = l.fetcher.FetchUsersPage(ctx, l.pageSize, offset)
		return res.pageErr
	})
	if includeCount {
		g.Go(func() error {
			res.count, res.countErr = l.fetcher.FetchUserCount(ctx)
			return res.countErr
		})
	}
	// Each outcome is read separately below; a count failure must not hide a page.
	_ = g.Wait()

	l.complete(res)
}

func (l *Loader) complete(res fetchResult) {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		l.logger.Debug("discarding fetch result after dispose", "offset", res.offset)
		return
	}

	l.state.IsLoading = false
	switch {
	case res.pageErr != nil:
		l.state.Err = res.pageErr
	case len(res.users) == 0:
		l.state.Exhausted = true
		l.state.Err = nil
	default:
		l.state.Items = append(l.state.Items, res.users...)
		l.state.Offset += l.pageSize
		l.state.Err = nil
	}
	if res.includeCount && res.countErr == nil {
		l.state.TotalCount = res.count.Count
	}
	listeners := l.listenersLocked()
	l.mu.Unlock()

	if res.pageErr != nil {
		l.logger.Warn("fetch users page failed", "limit", l.pageSize, "offset", res.offset, "err", res.pageErr)
	}
	if res.includeCount && res.countErr != nil {
		l.logger.Warn("fetch user count failed", "err", res.countErr)
	}
	for _, fn := range listeners {
		fn()
	}
}

func (l *Loader) listenersLocked() []func() {
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.listeners[id])
	}
	return fns
}

// Subscribe registers fn to be called after every fetch completion. The
// returned function releases the subscription; Dispose releases all of them.
func (l *Loader) Subscribe(fn func()) (release func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed || fn == nil {
		return func() {}
	}
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// Dispose tears the loader down. The in-flight fetch, if any, is cancelled
// and its result is never applied.
func (l *Loader) Dispose() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.disposed = true
	if l.cancel != nil {
		l.cancel()
	}
	clear(l.listeners)
}

// Wait blocks until the fetch in flight at the time of the call, if any, has
// settled and its listeners have returned.
func (l *Loader) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Items = slices.Clone(l.state.Items)
	return s
}

// Status returns the loader's current state machine position.
func (l *Loader) Status() LoaderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.state.Exhausted:
		return StatusExhausted
	case l.state.IsLoading:
		return StatusLoading
	default:
		return StatusIdle
	}
}

// Len returns the number of loaded users.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state.Items)
}

// At returns the user at index i.
func (l *Loader) At(i int) (domain.User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.state.Items) {
		return domain.User{}, false
	}
	return l.state.Items[i], true
}

// TotalCount returns the server-side total reported by the count fetch.
func (l *Loader) TotalCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TotalCount
}

// IsLoading reports whether a fetch is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.IsLoading
}

// Exhausted reports whether the server returned an empty page.
func (l *Loader) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Exhausted
}

// Offset returns the offset of the next page to request.
func (l *Loader) Offset() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Offset
}

// Err returns the last page fetch failure, if the most recent page fetch failed.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Err
}
