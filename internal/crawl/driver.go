package crawl

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jra3/hn-archiver/internal/crawlerr"
	"github.com/jra3/hn-archiver/internal/fetch"
	"github.com/jra3/hn-archiver/internal/history"
	"github.com/jra3/hn-archiver/internal/store"
)

// DriverConfig carries everything the periodic driver (C7) needs at
// startup that isn't already owned by fetch.Config.
type DriverConfig struct {
	FrontPageURL  string
	OutDir        string
	OutDirAbs     string
	RefreshPeriod time.Duration
	Fetch         fetch.Config
}

// Driver is the periodic driver (C7): it resolves and prepares the
// output directory, loads the id registry, constructs the shared fetch
// client, and then runs the front-page poll loop forever until its
// context is cancelled.
type Driver struct {
	cfg     DriverConfig
	outRoot string
	fetcher *fetch.Fetcher
	seen    *store.Registry
	history *history.Store
}

// NewDriver performs the C7 startup sequence: resolve the output
// directory (absolute override, or relative to cwd), create it if
// missing, load the id registry from it, and build the shared fetcher.
// Failure to prepare the output directory is the only fatal condition
// in the system and is returned as a *crawlerr.ConfigError.
func NewDriver(cfg DriverConfig, historyDBPath string) (*Driver, error) {
	outRoot := cfg.OutDirAbs
	if outRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, &crawlerr.ConfigError{Path: cfg.OutDir, Err: err}
		}
		outRoot = filepath.Join(cwd, cfg.OutDir)
	}

	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return nil, &crawlerr.ConfigError{Path: outRoot, Err: err}
	}

	seen, err := store.Load(outRoot)
	if err != nil {
		return nil, &crawlerr.ConfigError{Path: outRoot, Err: err}
	}

	var hist *history.Store
	if historyDBPath != "" {
		hist, err = history.Open(historyDBPath)
		if err != nil {
			log.Printf("[driver] pass-history ledger disabled: %v", err)
			hist = nil
		}
	}

	return &Driver{
		cfg:     cfg,
		outRoot: outRoot,
		fetcher: fetch.New(cfg.Fetch),
		seen:    seen,
		history: hist,
	}, nil
}

// Close releases the driver's history ledger, if one was opened.
func (d *Driver) Close() error {
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Run executes the main loop: one pass immediately, then one pass per
// refresh period, until ctx is cancelled. Passes run one at a time: a
// tick that arrives while a pass is running starts the next pass only
// after that one returns, and further ticks in the meantime are dropped.
// The id registry keeps a later pass from re-fetching stories an earlier
// one already handled.
func (d *Driver) Run(ctx context.Context) {
	d.runPass(ctx)

	ticker := time.NewTicker(d.cfg.RefreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[driver] shutdown requested, exiting")
			return
		case <-ticker.C:
			d.runPass(ctx)
		}
	}
}

func (d *Driver) runPass(ctx context.Context) {
	passID := uuid.NewString()
	start := time.Now()
	log.Printf("[pass %s] start", passID)

	scheduler, err := New(d.fetcher, d.cfg.FrontPageURL, d.outRoot, d.seen)
	if err != nil {
		log.Printf("[pass %s] scheduler construction failed: %v", passID, err)
		return
	}

	stats := scheduler.RunPass(ctx, passID)
	end := time.Now()

	log.Printf("[pass %s] complete seen=%d new=%d fetch_ok=%d fetch_fail=%d bytes=%s duration=%s",
		passID, stats.StoriesSeen, stats.StoriesNew, stats.FetchSuccess, stats.FetchFailure,
		store.HumanSize(int(stats.BytesWritten)), end.Sub(start).Round(time.Millisecond))

	if d.history != nil {
		rec := history.PassRecord{
			ID:           passID,
			StartedAt:    start,
			EndedAt:      end,
			StoriesSeen:  stats.StoriesSeen,
			StoriesNew:   stats.StoriesNew,
			FetchSuccess: stats.FetchSuccess,
			FetchFailure: stats.FetchFailure,
			BytesWritten: stats.BytesWritten,
		}
		if err := d.history.RecordPass(ctx, rec); err != nil {
			log.Printf("[pass %s] history record failed: %v", passID, err)
		}
	}
}

// SeenCount reports how many story ids the driver's registry currently
// holds; mainly useful for tests and status reporting.
func (d *Driver) SeenCount() int {
	return d.seen.Len()
}
