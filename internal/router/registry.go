package router

import (
	"context"
	"fmt"
	"log/slog"
)

// Mode selects how the searcher closes a chain on the target MIME: Simple
// scans every handler capable of producing the target MIME, Advanced
// restricts the close to the exact handler the caller named.
type Mode int

const (
	Simple Mode = iota
	Advanced
)

// FormatCache is the persistence seam for a handler's declared formats,
// so a handler that has already been initialized in a previous process
// doesn't need Init called again. Implemented by internal/formatcache.
type FormatCache interface {
	Get(handlerName string) ([]Format, bool)
	Put(handlerName string, formats []Format) error
}

// Option is one entry in a FormatRegistry's option pool: a (handler,
// format) pair eligible to participate in a chain.
type Option struct {
	Handler Handler
	Format  Format
}

// FormatRegistry is the canonical pool of (handler, format) options plus
// the byFromMime index used for BFS neighbour expansion.
type FormatRegistry struct {
	mode    Mode
	options []Option
	// byFromMime maps a MIME string to every handler that declares a
	// From-enabled Format with that MIME, i.e. every handler that can
	// consume that MIME as input.
	byFromMime map[string][]Handler
	// anyInputWriters is the flattened set of (handler, format) where
	// handler.SupportAnyInput() and format.To, used as the searcher's
	// once-per-search fallback.
	anyInputWriters []Option
}

// NewRegistry builds the option pool from handlers, initializing any
// handler whose formats are not already present in cache. Handlers that
// fail to initialize are skipped with a logged warning; the search
// continues without them.
func NewRegistry(ctx context.Context, handlers []Handler, cache FormatCache, mode Mode, log *slog.Logger) *FormatRegistry {
	if log == nil {
		log = slog.Default()
	}

	r := &FormatRegistry{
		mode:       mode,
		byFromMime: make(map[string][]Handler),
	}

	for _, h := range handlers {
		formats, cached := (([]Format)(nil)), false
		if cache != nil {
			formats, cached = cache.Get(h.Name())
		}

		if !cached {
			if err := h.Init(ctx); err != nil {
				log.Warn("handler init failed, excluding from registry",
					slog.String("handler", h.Name()), slog.Any("error", err))
				continue
			}
			formats = h.SupportedFormats()
			if cache != nil {
				if err := cache.Put(h.Name(), formats); err != nil {
					log.Warn("failed to persist format cache entry",
						slog.String("handler", h.Name()), slog.Any("error", err))
				}
			}
		}

		for _, f := range formats {
			if !f.hasMIME() {
				continue
			}
			if !f.From && !f.To {
				continue
			}
			r.options = append(r.options, Option{Handler: h, Format: f})

			if f.From {
				r.byFromMime[f.MIME] = append(r.byFromMime[f.MIME], h)
			}
			if f.To && supportsAnyInput(h) {
				r.anyInputWriters = append(r.anyInputWriters, Option{Handler: h, Format: f})
			}
		}
	}

	return r
}

// Mode reports the registry's simple/advanced routing scope.
func (r *FormatRegistry) Mode() Mode { return r.mode }

// Options returns the full option pool, in construction order.
func (r *FormatRegistry) Options() []Option { return r.options }

// HandlersFromMIME returns every handler that can consume mime as input,
// in stable registration order.
func (r *FormatRegistry) HandlersFromMIME(mime string) []Handler {
	return r.byFromMime[mime]
}

// AnyInputWriters returns the flattened any-input fallback set.
func (r *FormatRegistry) AnyInputWriters() []Option {
	return r.anyInputWriters
}

// FindOption locates the option matching a handler name, format MIME,
// and format code, used by PathStore.recall to reconstruct a live chain
// from a persisted one (spec §4.4).
func (r *FormatRegistry) FindOption(handlerName, formatMIME, formatCode string) (Option, bool) {
	for _, opt := range r.options {
		if opt.Handler.Name() == handlerName && opt.Format.MIME == formatMIME && opt.Format.Code == formatCode {
			return opt, true
		}
	}
	return Option{}, false
}

// FindInputOption locates the option a caller selected as chain input,
// by handler name and format MIME (the format code is not required to
// disambiguate a caller-facing selection, but is used when present).
func (r *FormatRegistry) FindInputOption(handlerName, formatMIME string) (Option, bool) {
	for _, opt := range r.options {
		if opt.Handler.Name() == handlerName && opt.Format.MIME == formatMIME {
			return opt, true
		}
	}
	return Option{}, false
}

func (r *FormatRegistry) String() string {
	return fmt.Sprintf("FormatRegistry{options=%d, mode=%v}", len(r.options), r.mode)
}
