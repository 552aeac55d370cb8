package router

import (
	"context"
	"log/slog"
	"time"

	"mediarouter/internal/reqctx"
)

// DefaultSearchTimeout is SEARCH_TIMEOUT_MS from spec §5: ten minutes.
const DefaultSearchTimeout = 10 * time.Minute

// Router is the top-level façade tying together a FormatRegistry, a
// PathStore, and the search/execution layers, implementing the full
// data flow from spec §2: recall-first, search-on-miss-or-stale,
// persist-on-success.
type Router struct {
	registry  *FormatRegistry
	pathStore *PathStore
	timeout   time.Duration
	log       *slog.Logger
}

// NewRouter builds a Router. timeout <= 0 uses DefaultSearchTimeout.
func NewRouter(registry *FormatRegistry, pathStore *PathStore, timeout time.Duration, log *slog.Logger) *Router {
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Router{registry: registry, pathStore: pathStore, timeout: timeout, log: log}
}

// Convert runs a conversion from input to target over files, in four
// steps: the MIME-equality fast path, a PathStore recall-and-replay, a
// fresh bounded search on miss or stale recall, and persistence of
// whatever chain succeeded (including a partial one on timeout). The
// search deadline is r.timeout from now, unless ctx carries an override
// via reqctx.WithSearchDeadline (spec.md §5's per-request timeout).
func (r *Router) Convert(ctx context.Context, files []File, input, target Option, progress Progress) (*SearchResult, error) {
	if progress == nil {
		progress = NoopProgress{}
	}

	// Fast-path short-circuit (spec §6): identical MIME, no chain.
	if input.Format.MIME == target.Format.MIME {
		return &SearchResult{
			Files:   files,
			Chain:   Chain{{Handler: input.Handler, Format: input.Format}},
			Outcome: OutcomeSuccess,
		}, nil
	}

	key := RouteKey(r.registry.Mode(), input.Format.MIME, target.Format.MIME, target.Handler.Name())

	if chain, ok := r.pathStore.Recall(ctx, key); ok {
		executor := NewAttemptExecutor()
		out, err := executor.Attempt(ctx, files, chain, progress)
		if err == nil {
			r.log.Debug("path store hit", slog.String("key", key))
			return &SearchResult{Files: out, Chain: chain, Outcome: OutcomeSuccess}, nil
		}
		r.log.Info("cached path replay failed, evicting", slog.String("key", key), slog.Any("error", err))
		if evictErr := r.pathStore.Evict(ctx, key); evictErr != nil {
			r.log.Warn("failed to evict stale path store entry", slog.String("key", key), slog.Any("error", evictErr))
		}
	}

	deadline, ok := reqctx.SearchDeadline(ctx)
	if !ok {
		deadline = time.Now().Add(r.timeout)
	}
	searcher := NewPathSearcher(r.registry)
	result := searcher.FindPath(ctx, files, input, target, deadline, progress)

	switch result.Outcome {
	case OutcomeSuccess:
		if err := r.pathStore.Store(ctx, key, result.Chain); err != nil {
			r.log.Warn("failed to persist successful path", slog.String("key", key), slog.Any("error", err))
		}
		return result, nil
	case OutcomePartial:
		// A timeout-with-partial-work result still replaces the prior
		// cache entry with the prefix we did manage to execute, per
		// spec's "store is updated with the partial path" scenario.
		if err := r.pathStore.Store(ctx, key, result.Chain); err != nil {
			r.log.Warn("failed to persist partial path", slog.String("key", key), slog.Any("error", err))
		}
		return result, nil
	case OutcomeTimeout:
		return result, ErrTimeout
	default:
		return result, ErrNoRoute
	}
}

// Registry exposes the router's FormatRegistry, e.g. for a host to
// resolve a caller-named (handler, MIME) selection into an Option.
func (r *Router) Registry() *FormatRegistry {
	return r.registry
}
