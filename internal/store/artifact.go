// Package store implements the artifact store (C2) and id registry (C3):
// durable, idempotent persistence of fetched bytes to the local
// filesystem, and filesystem-backed de-duplication of story ids across
// passes.
package store

import (
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jra3/hn-archiver/internal/crawlerr"
)

// dirPerm is permissive by design: the archiver's output tree is meant
// to be browsed, not locked down.
const dirPerm = 0o755

// filePerm matches dirPerm's intent: readable by anyone who can see the
// output directory.
const filePerm = 0o644

// Persist ensures every missing directory above path exists and writes
// data to path, truncating any pre-existing file, and logs one
// "[persist]" line per successful write. It is safe to call
// concurrently with other Persist calls, including ones that share a
// parent directory that does not yet exist.
func Persist(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &crawlerr.StorageError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return &crawlerr.StorageError{Path: path, Err: err}
	}
	log.Printf("[persist] %s bytes=%s", path, HumanSize(len(data)))
	return nil
}

// HumanSize renders a byte count the way the archiver's logs do
// throughout: "1.2 MB" rather than a raw integer.
func HumanSize(n int) string {
	return humanize.Bytes(uint64(n))
}
