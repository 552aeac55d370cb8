package router

import "context"

// File is one named byte buffer flowing through a conversion chain.
type File struct {
	Name  string
	Bytes []byte
}

// Handler is the uniform capability every codec back end exposes to the
// router. Init runs at most once per process; SupportedFormats may be
// empty until Init has completed and is immutable afterward.
//
// Convert must leave the handler in a state where another Convert call
// may immediately follow: handlers own their own temporary state (working
// directories, subprocess lifetimes) and must release it before
// returning.
type Handler interface {
	// Name uniquely identifies this handler and doubles as its cache key
	// in the persistent format cache and path store.
	Name() string

	// Ready reports whether Init has completed successfully.
	Ready() bool

	// Init populates SupportedFormats. It may be called more than once
	// concurrently only in the sense that callers must not assume
	// exclusion; implementations are responsible for making a second
	// call after a successful first call a cheap no-op.
	Init(ctx context.Context) error

	// SupportedFormats returns this handler's declared formats. The
	// slice and its order are stable once Ready returns true.
	SupportedFormats() []Format

	// Convert transforms files from one declared format to another.
	// It fails by returning a non-nil error, or by returning any File
	// with a zero-length Bytes.
	Convert(ctx context.Context, files []File, from, to Format) ([]File, error)
}

// AnyInputHandler is implemented by handlers that declare
// SupportAnyInput: they accept any input MIME rather than only the MIMEs
// named in their own SupportedFormats' From entries. The searcher injects
// these once per search as a one-shot nested-conversion shortcut (see
// spec §4.3 step 6).
type AnyInputHandler interface {
	Handler
	SupportAnyInput() bool
}

// supportsAnyInput reports whether h declares AnyInputHandler support.
func supportsAnyInput(h Handler) bool {
	a, ok := h.(AnyInputHandler)
	return ok && a.SupportAnyInput()
}
