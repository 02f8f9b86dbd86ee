package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jra3/hn-archiver/internal/fetch"
)

func TestDriverRunsOnePassImmediately(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table>
<tr class="athing" id="5"><td><a href="v"></a></td><td><a href="item?id=5">Ask HN thing</a></td></tr>
<tr><td class="subtext"></td></tr>
</table></body></html>`))
	}))
	defer srv.Close()

	outDir := t.TempDir()
	cfg := DriverConfig{
		FrontPageURL:  srv.URL + "/",
		OutDirAbs:     outDir,
		RefreshPeriod: time.Hour,
		Fetch:         fetch.DefaultConfig(),
	}

	d, err := NewDriver(cfg, "")
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go d.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(outDir, "main.html")); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("main.html was not persisted within the timeout")
}

func TestNewDriverFailsOnUnwritableOutputDir(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup WriteFile() error = %v", err)
	}

	cfg := DriverConfig{
		FrontPageURL:  "https://example.invalid/",
		OutDirAbs:     filepath.Join(blocker, "nested"),
		RefreshPeriod: time.Hour,
		Fetch:         fetch.DefaultConfig(),
	}

	_, err := NewDriver(cfg, "")
	if err == nil {
		t.Fatal("NewDriver() expected error when output dir cannot be created, got nil")
	}
}

func TestDriverLoadsExistingRegistry(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(outDir, "99 Existing Story"), 0o755); err != nil {
		t.Fatalf("setup MkdirAll() error = %v", err)
	}

	cfg := DriverConfig{
		FrontPageURL:  "https://example.invalid/",
		OutDirAbs:     outDir,
		RefreshPeriod: time.Hour,
		Fetch:         fetch.DefaultConfig(),
	}

	d, err := NewDriver(cfg, "")
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	defer d.Close()

	if d.SeenCount() != 1 {
		t.Errorf("SeenCount() = %d, want 1 (recovered from existing directory)", d.SeenCount())
	}
}
