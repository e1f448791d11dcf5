package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/booknook/internal/blobstore"
	"github.com/dmitrijs2005/booknook/internal/config"
	"github.com/dmitrijs2005/booknook/internal/library"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/dmitrijs2005/booknook/internal/metastore"
)

// App owns the stores and the library service for one nook invocation.
// Stores open lazily, so commands that never touch the library cost nothing.
type App struct {
	config *config.Config
	log    logging.Logger
	closer io.Closer

	meta  *metastore.Manager
	blobs blobstore.Store
	lib   *library.Service

	out    io.Writer
	errOut io.Writer
	in     io.Reader

	// assumeYes skips confirmation prompts.
	assumeYes bool
	ephemeral bool
}

type AppOption func(*App)

// WithIO replaces the standard streams.
func WithIO(in io.Reader, out, errOut io.Writer) AppOption {
	return func(a *App) {
		a.in = in
		a.out = out
		a.errOut = errOut
	}
}

// WithEphemeral keeps the library in memory; nothing survives the process.
func WithEphemeral() AppOption {
	return func(a *App) { a.ephemeral = true }
}

func WithAssumeYes(yes bool) AppOption {
	return func(a *App) { a.assumeYes = yes }
}

func NewApp(c *config.Config, opts ...AppOption) (*App, error) {
	a := &App{
		config: c,
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, o := range opts {
		o(a)
	}

	lo := c.LogOptions()
	lo.Output = a.errOut
	lg, closer, err := logging.New(lo)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	a.log, a.closer = lg, closer

	if a.ephemeral {
		a.meta = metastore.New(metastore.MemoryPath, lg)
		a.blobs = blobstore.NewMemory()
	} else {
		a.meta = metastore.New(c.DatabasePath, lg)
		a.blobs = blobstore.NewFileSystem(c.BlobDir)
	}
	a.lib = library.New(a.blobs, a.meta, lg)
	return a, nil
}

func (a *App) Library() *library.Service {
	return a.lib
}

// Close releases the database and the log file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.meta.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// reportCleanups prints blob removals that failed after a committed delete.
func (a *App) reportCleanups(cs []library.Cleanup) {
	for _, c := range library.Failures(cs) {
		fmt.Fprintf(a.errOut, "warning: could not remove %s: %v\n", c.BlobPath, c.Err)
	}
}
