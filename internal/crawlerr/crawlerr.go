// Package crawlerr defines the error taxonomy shared across the archiver's
// components: which failures are fatal to the process and which are
// isolated to the task that produced them.
package crawlerr

import "errors"

// ConfigError indicates the output directory could not be resolved or
// created at startup. It is the only fatal error in this taxonomy; the
// process exits non-zero when one reaches main (as it also does when the
// config file cannot be parsed, which is reported as a plain error).
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return "config: " + e.Path + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError wraps the last cause of a URL whose retries were exhausted.
// It is logged and the owning task ends; no sibling tasks are affected.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return "fetch " + e.URL + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates an HTML body could not be parsed at all (as
// opposed to parsing cleanly but matching zero selectors).
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError indicates a filesystem write failed for a non-root
// artifact. The owning task ends; the pass continues.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return "storage " + e.Path + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrCancelled is the cause carried by the *FetchError that Fetch returns
// once the surrounding pass's context has been cancelled (while waiting
// for a semaphore permit, after a failed attempt, or during the backoff
// sleep). The scheduler logs and counts it like any other fetch failure.
var ErrCancelled = errors.New("cancelled")
