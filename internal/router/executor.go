package router

import "context"

// prefixEntry is one remembered step of a previously-attempted chain:
// the file set produced up through node, and the node itself.
type prefixEntry struct {
	files []File
	node  Node
}

// AttemptExecutor runs an ordered chain of handlers on a working file
// set, reusing a forward-prefix cache so that candidates sharing a long
// prefix with the previous attempt don't recompute it.
//
// An AttemptExecutor is owned by a single search call frame and must not
// be shared across concurrent searches.
type AttemptExecutor struct {
	prefixCache []prefixEntry
}

// NewAttemptExecutor returns an executor with an empty prefix cache.
func NewAttemptExecutor() *AttemptExecutor {
	return &AttemptExecutor{}
}

// cachedNodes returns the chain nodes the current prefix cache remembers,
// in order.
func (e *AttemptExecutor) cachedNodes() []Node {
	nodes := make([]Node, len(e.prefixCache))
	for i, entry := range e.prefixCache {
		nodes[i] = entry.node
	}
	return nodes
}

// RealignForCandidate is the searcher's per-iteration "prefix-cache
// realignment" (spec §4.3 step 3): it walks chain against the cache and,
// on divergence at position i, discards cache entries at indices >= i-1
// — one more than strictly necessary. This off-by-one is preserved
// intentionally; see spec §9's Open Question. It is a no-op when chain
// simply extends the cached prefix without diverging.
func (e *AttemptExecutor) RealignForCandidate(chain Chain) {
	suffix := chainSuffix(chain)
	p := commonPrefixLenNodes(e.cachedNodes(), suffix)
	if p < len(e.prefixCache) {
		keep := p - 1
		if keep < 0 {
			keep = 0
		}
		e.prefixCache = e.prefixCache[:keep]
	}
}

// Attempt executes chain against initialFiles, resuming from the longest
// prefix already present in the cache (spec §4.2). It returns the final
// file set on success, or an error wrapping ErrInitFailed/ErrConvertFailed
// on the first failing hop.
func (e *AttemptExecutor) Attempt(ctx context.Context, initialFiles []File, chain Chain, progress Progress) ([]File, error) {
	if len(chain) < 2 {
		panic("router: chain invariant violated: chain must have at least 2 nodes")
	}
	if progress == nil {
		progress = NoopProgress{}
	}

	suffix := chainSuffix(chain)
	p := commonPrefixLenNodes(e.cachedNodes(), suffix)
	if p < len(e.prefixCache) {
		e.prefixCache = e.prefixCache[:p]
	}

	var files []File
	if p > 0 {
		files = e.prefixCache[p-1].files
	} else {
		files = initialFiles
	}

	for i := p; i <= len(chain)-2; i++ {
		progress.OnStepStart(chain, i)

		next := chain[i+1]
		if !next.Handler.Ready() {
			if err := next.Handler.Init(ctx); err != nil {
				return nil, wrapErr(ErrInitFailed, next.Handler.Name(), err)
			}
		}

		inputFormat := chain[i].Format
		if !supportsAnyInput(next.Handler) {
			f, ok := fromFormatForMIME(next.Handler, chain[i].Format.MIME)
			if !ok {
				panic("router: chain invariant violated: " + next.Handler.Name() + " declares no from-enabled format for the previous hop's mime")
			}
			inputFormat = f
		}

		out, err := next.Handler.Convert(ctx, files, inputFormat, next.Format)
		if err != nil {
			return nil, wrapErr(ErrConvertFailed, next.Handler.Name(), err)
		}
		for _, f := range out {
			if len(f.Bytes) == 0 {
				return nil, wrapErr(ErrConvertFailed, next.Handler.Name(), errEmptyOutput(f.Name))
			}
		}

		files = out
		e.prefixCache = append(e.prefixCache, prefixEntry{files: files, node: next})
	}

	return files, nil
}

// Reset clears the prefix cache, used when starting a fresh search.
func (e *AttemptExecutor) Reset() {
	e.prefixCache = nil
}

func chainSuffix(chain Chain) []Node {
	return []Node(chain[1:])
}

func commonPrefixLenNodes(a, b []Node) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for ; i < n; i++ {
		if a[i].Handler.Name() != b[i].Handler.Name() || a[i].Format != b[i].Format {
			break
		}
	}
	return i
}

func fromFormatForMIME(h Handler, mime string) (Format, bool) {
	for _, f := range h.SupportedFormats() {
		if f.From && f.MIME == mime {
			return f, true
		}
	}
	return Format{}, false
}
