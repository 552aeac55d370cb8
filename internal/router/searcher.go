package router

import (
	"context"
	"time"
)

// MaxChainLen is the maximum number of nodes in any chain (spec §3): at
// most 5 hops.
const MaxChainLen = 6

// Outcome classifies a search's result, per spec §7/§8.
type Outcome int

const (
	// OutcomeSuccess: a chain was found and executed end-to-end; its
	// final MIME equals the requested target MIME.
	OutcomeSuccess Outcome = iota
	// OutcomePartial: the deadline fired after at least one hop
	// executed; the result's final MIME does not equal the target.
	OutcomePartial
	// OutcomeTimeout: the deadline fired before any hop executed.
	OutcomeTimeout
	// OutcomeNone: the search queue drained without reaching the
	// target MIME.
	OutcomeNone
)

// SearchResult is the file set and chain a search produced, annotated
// with how it ended.
type SearchResult struct {
	Files   []File
	Chain   Chain
	Outcome Outcome
}

// PathSearcher performs the bounded breadth-first search over the
// handler-format graph described by a FormatRegistry.
type PathSearcher struct {
	registry *FormatRegistry
	executor *AttemptExecutor
}

// NewPathSearcher returns a searcher bound to registry, with its own
// private AttemptExecutor (never shared across concurrent searches).
func NewPathSearcher(registry *FormatRegistry) *PathSearcher {
	return &PathSearcher{
		registry: registry,
		executor: NewAttemptExecutor(),
	}
}

// FindPath searches for a chain from input to a node matching target's
// MIME, trying candidates in pure BFS order. It returns as soon as the
// first end-to-end-successful chain is found, or per spec §4.3/§5's
// deadline policy.
func (s *PathSearcher) FindPath(ctx context.Context, files []File, input, target Option, deadline time.Time, progress Progress) *SearchResult {
	if progress == nil {
		progress = NoopProgress{}
	}

	inputNode := Node{Handler: input.Handler, Format: input.Format}
	queue := []Chain{{inputNode}}
	anyInputTried := false

	for len(queue) > 0 {
		if time.Now().After(deadline) {
			return s.partialOrTimeout(inputNode)
		}

		chain := queue[0]
		queue = queue[1:]
		if len(chain) > MaxChainLen {
			continue
		}

		s.executor.RealignForCandidate(chain)

		prev := chain[len(chain)-1]
		validHandlers := s.registry.HandlersFromMIME(prev.Format.MIME)

		// Target-close phase (spec §4.3 step 5).
		if len(chain) < MaxChainLen {
			for _, cand := range s.closeCandidates(validHandlers, target) {
				if chain.Contains(cand.Format) {
					continue
				}
				candidate := append(chain.Clone(), Node{Handler: cand.Handler, Format: cand.Format})
				progress.OnPathAttempt(candidate)
				if out, err := s.executor.Attempt(ctx, files, candidate, progress); err == nil {
					return &SearchResult{Files: out, Chain: candidate, Outcome: OutcomeSuccess}
				}
			}
		}

		// Any-input fallback, tried exactly once across the whole
		// search (spec §4.3 step 6).
		if !anyInputTried {
			anyInputTried = true
			for _, w := range s.registry.AnyInputWriters() {
				if w.Format.MIME != target.Format.MIME {
					continue
				}
				if chain.Contains(w.Format) {
					continue
				}
				candidate := append(chain.Clone(), Node{Handler: w.Handler, Format: w.Format})
				if len(candidate) > MaxChainLen {
					continue
				}
				progress.OnPathAttempt(candidate)
				if out, err := s.executor.Attempt(ctx, files, candidate, progress); err == nil {
					return &SearchResult{Files: out, Chain: candidate, Outcome: OutcomeSuccess}
				}
			}
		}

		// Expand (spec §4.3 step 7).
		if len(chain) == MaxChainLen {
			continue
		}
		for _, h := range validHandlers {
			for _, f := range h.SupportedFormats() {
				if !f.To || !f.hasMIME() {
					continue
				}
				if chain.Contains(f) {
					continue
				}
				queue = append(queue, append(chain.Clone(), Node{Handler: h, Format: f}))
			}
		}
	}

	return &SearchResult{Outcome: OutcomeNone}
}

// closeCandidates returns the options eligible to end the chain at the
// target MIME, per the registry's simple/advanced mode.
func (s *PathSearcher) closeCandidates(validHandlers []Handler, target Option) []Option {
	var out []Option
	switch s.registry.Mode() {
	case Advanced:
		for _, h := range validHandlers {
			if h.Name() == target.Handler.Name() {
				out = append(out, target)
				break
			}
		}
	default: // Simple
		for _, h := range validHandlers {
			for _, f := range h.SupportedFormats() {
				if f.To && f.MIME == target.Format.MIME {
					out = append(out, Option{Handler: h, Format: f})
				}
			}
		}
	}
	return out
}

// partialOrTimeout builds the deadline-expiry result: a partial success
// from whatever the executor's prefix cache has already computed, or a
// pure timeout if nothing has executed yet (spec §4.3 step 1, §5, §7).
func (s *PathSearcher) partialOrTimeout(inputNode Node) *SearchResult {
	nodes := s.executor.cachedNodes()
	if len(nodes) == 0 {
		return &SearchResult{Outcome: OutcomeTimeout}
	}
	chain := append(Chain{inputNode}, nodes...)
	files := s.executor.prefixCache[len(s.executor.prefixCache)-1].files
	return &SearchResult{Files: files, Chain: chain, Outcome: OutcomePartial}
}
