// Command userlist browses the users API as an infinitely scrolling list.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"userlist/config"
	"userlist/internal/adapters/userapi"
	"userlist/internal/domain"
	"userlist/internal/services"
	"userlist/internal/tui"
)

func main() {
	dump := flag.Bool("dump", false, "load pages without the terminal UI and print every user")
	maxPages := flag.Int("pages", 0, "with -dump, stop after this many pages (0 loads until the list is exhausted)")
	flag.Parse()

	if err := run(*dump, *maxPages); err != nil {
		fmt.Fprintln(os.Stderr, "userlist:", err)
		os.Exit(1)
	}
}

func run(dump bool, maxPages int) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so interactive sessions log to a file.
	var logOut io.Writer = os.Stderr
	if !dump {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut)

	fetcher, err := userapi.NewHTTPFetcher(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout}, userapi.WithToken(cfg.APIToken))
	if err != nil {
		return err
	}
	loader := newLoader(fetcher, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dump {
		return runDump(ctx, loader, os.Stdout, maxPages)
	}
	return tui.NewApp(loader, logger).Run(ctx)
}

func newLoader(fetcher domain.UserFetcher, cfg *config.ClientConfig, logger *slog.Logger) *services.Loader {
	return services.NewLoader(fetcher,
		services.WithPageSize(cfg.PageSize),
		services.WithThreshold(cfg.ScrollThreshold),
		services.WithLogger(logger),
	)
}
