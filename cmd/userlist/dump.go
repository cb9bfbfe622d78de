package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"userlist/internal/services"
	"userlist/internal/tui"
)

// atBottom is a viewport scrolled to the end of its content.
var atBottom = services.ScrollMetrics{}

// runDump drives loader the way a reader scrolling to the bottom would and
// prints every loaded user. It stops when the list is exhausted, a page fails,
// maxPages pages were loaded (when positive) or ctx is done.
func runDump(ctx context.Context, loader *services.Loader, w io.Writer, maxPages int) error {
	defer loader.Dispose()

	loader.Initialize(ctx)
	loader.Wait()
	pages := 1
	for !loader.Exhausted() && loader.Err() == nil && ctx.Err() == nil {
		if maxPages > 0 && pages >= maxPages {
			break
		}
		loader.OnScroll(atBottom)
		loader.Wait()
		pages++
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d of %d users\n", loader.Len(), loader.TotalCount())
	for i := range loader.Len() {
		u, _ := loader.At(i)
		lines := tui.ItemLines(u)
		fmt.Fprintf(bw, "%s\t%s\t%s\n", lines[0], lines[1], lines[2][2:])
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := loader.Err(); err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	return nil
}
