package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userlist/internal/domain"
	"userlist/internal/services"
)

// pagedFetcher serves users in pages from a fixed slice.
type pagedFetcher struct {
	mu      sync.Mutex
	users   []domain.User
	pageErr error
	calls   int

	// When set, every page request after the first waits for gate to close.
	gate chan struct{}
}

func (f *pagedFetcher) FetchUsersPage(ctx context.Context, limit, offset int) ([]domain.User, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil && call > 0 {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if offset >= len(f.users) {
		return []domain.User{}, nil
	}
	return f.users[offset:min(offset+limit, len(f.users))], nil
}

func (f *pagedFetcher) FetchUserCount(_ context.Context) (domain.UserCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.UserCount{Count: len(f.users)}, nil
}

func (f *pagedFetcher) pageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		name   string
		status services.LoaderStatus
		err    error
		want   string
	}{
		{"loading wins", services.StatusLoading, errors.New("x"), "Loading…"},
		{"failure", services.StatusIdle, errors.New("boom"), "Load failed, scroll to retry: boom"},
		{"exhausted", services.StatusExhausted, nil, "End of list"},
		{"idle shows help", services.StatusIdle, nil, "↑/↓ j/k move  PgUp/PgDn page  g/G first/last  q quit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusText(tt.status, tt.err))
		})
	}
}

func TestApp_RefreshShowsCounts(t *testing.T) {
	fetcher := &pagedFetcher{users: numberedUsers(0, 3)}
	loader := services.NewLoader(fetcher, services.WithPageSize(2))
	a := NewApp(loader, discardLogger())
	screen := newScreen(t, 40, 12)
	a.root.SetRect(0, 0, 40, 12)

	a.root.Draw(screen)
	assert.Equal(t, "Users 0 of 0", rowText(screen, 0))
	assert.Equal(t, "No users", rowText(screen, 1))

	loader.Initialize(context.Background())
	loader.Wait()
	a.refresh()
	a.root.Draw(screen)

	assert.Equal(t, "Users 2 of 3", rowText(screen, 0))
	assert.Equal(t, "First0 Last0", rowText(screen, 1))
	assert.Equal(t, "First1 Last1", rowText(screen, 5))

	// The 10-row list is within the threshold of its end, so drawing it asked for the next page.
	loader.Wait()
	a.refresh()
	a.root.Draw(screen)
	assert.Equal(t, "Users 3 of 3", rowText(screen, 0))

	loader.Wait()
	assert.Equal(t, 3, fetcher.pageCalls())
	assert.True(t, loader.Exhausted())
}

func TestApp_ScrollTriggeredFetchShowsLoading(t *testing.T) {
	fetcher := &pagedFetcher{users: numberedUsers(0, 4), gate: make(chan struct{})}
	loader := services.NewLoader(fetcher, services.WithPageSize(2))
	a := NewApp(loader, discardLogger())
	screen := newScreen(t, 40, 12)
	a.root.SetRect(0, 0, 40, 12)

	loader.Initialize(context.Background())
	loader.Wait()
	a.refresh()
	require.Equal(t, "↑/↓ j/k move  PgUp/PgDn page  g/G first/last  q quit", a.status.GetText(false))

	// The two loaded users leave the list within the threshold, so drawing it
	// starts the second page, which stays blocked.
	a.root.Draw(screen)
	require.True(t, loader.IsLoading())
	assert.Equal(t, "Loading…", a.status.GetText(false))
	assert.Equal(t, "Loading…", rowText(screen, 11))

	close(fetcher.gate)
	loader.Wait()
	a.refresh()
	assert.Equal(t, "Users 4 of 4", a.header.GetText(false))
}

func TestApp_RetryAfterFailureShowsLoading(t *testing.T) {
	fetcher := &pagedFetcher{pageErr: errors.New("connection refused"), gate: make(chan struct{})}
	loader := services.NewLoader(fetcher, services.WithPageSize(2))
	a := NewApp(loader, discardLogger())

	loader.Initialize(context.Background())
	loader.Wait()
	a.refresh()
	require.Equal(t, "Load failed, scroll to retry: connection refused", a.status.GetText(false))

	fetcher.mu.Lock()
	fetcher.pageErr = nil
	fetcher.mu.Unlock()
	a.list.scrolled(services.ScrollMetrics{})
	assert.Equal(t, "Loading…", a.status.GetText(false))

	close(fetcher.gate)
	loader.Wait()
	a.refresh()
	assert.Equal(t, "End of list", a.status.GetText(false))
}

func TestApp_RefreshShowsFailure(t *testing.T) {
	fetcher := &pagedFetcher{pageErr: errors.New("connection refused")}
	loader := services.NewLoader(fetcher)
	a := NewApp(loader, discardLogger())
	screen := newScreen(t, 60, 6)
	a.root.SetRect(0, 0, 60, 6)

	loader.Initialize(context.Background())
	loader.Wait()
	a.refresh()
	a.root.Draw(screen)

	assert.Equal(t, "Load failed, scroll to retry: connection refused", rowText(screen, 5))
}

func TestApp_RunStopsOnContextAndDisposesLoader(t *testing.T) {
	fetcher := &pagedFetcher{users: numberedUsers(0, 2)}
	loader := services.NewLoader(fetcher)
	// Run owns the screen and finalizes it on exit.
	screen := tcell.NewSimulationScreen("UTF-8")
	a := NewApp(loader, discardLogger()).SetScreen(screen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return loader.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	loader.Wait()
	before := fetcher.pageCalls()
	loader.OnScroll(services.ScrollMetrics{})
	assert.Equal(t, before, fetcher.pageCalls(), "disposed loader ignores scrolls")
}
