package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jra3/hn-archiver/internal/config"
	"github.com/jra3/hn-archiver/internal/crawl"
	"github.com/jra3/hn-archiver/internal/fetch"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the periodic archiver in the foreground",
	RunE:  runArchiver,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Duration("refresh-period", 0, "interval between front-page polls (default 600s)")
	runCmd.Flags().String("out-dir", "", "output directory, relative to the working directory (default ycombinator)")
	runCmd.Flags().String("out-dir-abs", "", "absolute output directory, overrides --out-dir")
	runCmd.Flags().Int64("global-limit", 0, "maximum total in-flight fetches (default 100)")
	runCmd.Flags().Int64("per-host-limit", 0, "maximum in-flight fetches to the same host (default 1)")
	runCmd.Flags().Duration("timeout", 0, "per-request timeout (default 30s)")
	runCmd.Flags().Int("retries", 0, "retries after the first attempt before giving up on a URL (default 3)")
	runCmd.Flags().String("site-name", "", "identifies this crawler in its User-Agent header")
	runCmd.Flags().String("front-page-url", "", "seed URL polled every refresh period")
}

func runArchiver(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	driverCfg := crawl.DriverConfig{
		FrontPageURL:  cfg.FrontPageURL,
		OutDir:        cfg.OutDir,
		OutDirAbs:     cfg.OutDirAbs,
		RefreshPeriod: cfg.RefreshPeriod,
		Fetch: fetch.Config{
			Timeout:      cfg.Timeout,
			Retries:      cfg.Retries,
			GlobalLimit:  cfg.GlobalLimit,
			PerHostLimit: cfg.PerHostLimit,
			SiteName:     cfg.SiteName,
		},
	}

	driver, err := crawl.NewDriver(driverCfg, defaultHistoryDBPath())
	if err != nil {
		return err
	}
	defer driver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	driver.Run(ctx)
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetDuration("refresh-period"); v > 0 {
		cfg.RefreshPeriod = v
	}
	if v, _ := cmd.Flags().GetString("out-dir"); v != "" {
		cfg.OutDir = v
	}
	if v, _ := cmd.Flags().GetString("out-dir-abs"); v != "" {
		cfg.OutDirAbs = v
	}
	if v, _ := cmd.Flags().GetInt64("global-limit"); v > 0 {
		cfg.GlobalLimit = v
	}
	if v, _ := cmd.Flags().GetInt64("per-host-limit"); v > 0 {
		cfg.PerHostLimit = v
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v, _ := cmd.Flags().GetInt("retries"); v > 0 {
		cfg.Retries = v
	}
	if v, _ := cmd.Flags().GetString("site-name"); v != "" {
		cfg.SiteName = v
	}
	if v, _ := cmd.Flags().GetString("front-page-url"); v != "" {
		cfg.FrontPageURL = v
	}
}

func defaultHistoryDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "hn-archiver", "history.db")
}
