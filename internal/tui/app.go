package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"userlist/internal/services"
)

// App is the terminal front end: a header with the loaded and total counts,
// the user list and a status line.
type App struct {
	app    *tview.Application
	root   *tview.Flex
	header *tview.TextView
	list   *ListView
	status *tview.TextView

	loader *services.Loader
	logger *slog.Logger
}

// NewApp wires a list view to loader. The loader is initialized by Run.
func NewApp(loader *services.Loader, logger *slog.Logger) *App {
	a := &App{
		app:    tview.NewApplication(),
		header: tview.NewTextView(),
		status: tview.NewTextView(),
		list:   NewListView(loader),
		loader: loader,
		logger: logger,
	}
	a.header.SetTextStyle(tcell.StyleDefault.Bold(true))
	a.status.SetTextStyle(tcell.StyleDefault.Foreground(tcell.ColorGray))
	a.list.SetScrollFunc(func(m services.ScrollMetrics) {
		loader.OnScroll(m)
		a.refresh()
	})

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.list, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.app.SetRoot(a.root, true).
		EnableMouse(true).
		SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Key() == tcell.KeyEscape || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
				a.app.Stop()
				return nil
			}
			return event
		})
	a.refresh()
	return a
}

// SetScreen replaces the terminal screen. Must be called before Run.
func (a *App) SetScreen(screen tcell.Screen) *App {
	a.app.SetScreen(screen)
	return a
}

// Run starts the loader and blocks until the user quits or ctx is done. The
// loader is disposed on return.
func (a *App) Run(ctx context.Context) error {
	// QueueUpdateDraw blocks until the event loop runs the update, which never
	// happens once the loop has stopped.
	release := a.loader.Subscribe(func() {
		go a.app.QueueUpdateDraw(a.refresh)
	})
	defer a.loader.Dispose()
	defer release()

	a.loader.Initialize(ctx)
	a.refresh()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			a.app.Stop()
		case <-stopped:
		}
	}()

	a.logger.Info("userlist started")
	if err := a.app.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	a.logger.Info("userlist stopped", "loaded", a.loader.Len())
	return nil
}

// refresh copies loader state into the header and status line.
func (a *App) refresh() {
	a.header.SetText(headerText(a.loader.Len(), a.loader.TotalCount()))
	a.status.SetText(statusText(a.loader.Status(), a.loader.Err()))
}

func headerText(loaded, total int) string {
	return fmt.Sprintf("Users %d of %d", loaded, total)
}

func statusText(status services.LoaderStatus, err error) string {
	switch {
	case status == services.StatusLoading:
		return "Loading…"
	case err != nil:
		return "Load failed, scroll to retry: " + err.Error()
	case status == services.StatusExhausted:
		return "End of list"
	default:
		return "↑/↓ j/k move  PgUp/PgDn page  g/G first/last  q quit"
	}
}
