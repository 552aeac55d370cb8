package router

import (
	"errors"
	"fmt"
)

// Error taxonomy, per spec §7. The router is tolerant of per-hop
// failures (expected — the search is expected to try chains that don't
// work) and strict about its own invariants; a chain-construction
// violation is a bug and panics rather than returning one of these.
var (
	// ErrNoRoute is returned when the search queue drains without ever
	// reaching the target MIME.
	ErrNoRoute = errors.New("router: no conversion route found")

	// ErrTimeout is returned when the search deadline expires before
	// any chain has executed even one hop.
	ErrTimeout = errors.New("router: search timed out with no work done")

	// ErrInitFailed is returned by the executor when a handler's Init
	// fails mid-chain. The searcher treats this the same as a convert
	// failure: move to the next candidate.
	ErrInitFailed = errors.New("router: handler init failed")

	// ErrConvertFailed is returned by the executor when a hop's Convert
	// call errors or returns an empty-bytes file.
	ErrConvertFailed = errors.New("router: handler convert failed")
)

// wrapErr attaches a handler name and underlying cause to one of the
// sentinel errors above, while keeping errors.Is(err, sentinel) true.
func wrapErr(sentinel error, handlerName string, cause error) error {
	return fmt.Errorf("%w: %s: %v", sentinel, handlerName, cause)
}

// errEmptyOutput reports a hop that returned a zero-length file.
func errEmptyOutput(filename string) error {
	return fmt.Errorf("produced empty file %q", filename)
}
