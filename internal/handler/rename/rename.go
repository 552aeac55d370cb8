// Package rename implements spec.md §8's "Rename shortcut" scenario: a
// handler that accepts any input MIME and "converts" to one target format
// by repacking the filename extension without touching the bytes. It is
// grounded on the teacher's kepubify wrapper — same Available()-once
// pattern, same extension-swap Convert — generalized from a single fixed
// format pair to an AnyInputHandler with an arbitrary configured target.
package rename

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"mediarouter/internal/router"
)

// Handler renames any input file to Target, copying its bytes unchanged.
// It is the router's escape hatch for MIME types that are really just a
// different file extension over identical content (spec.md §8's example:
// a ".txt" file accepted as a "text/markdown" input with no other writer
// declaring that MIME).
type Handler struct {
	Target router.Format

	mu            sync.Mutex
	available     bool
	availableOnce sync.Once
}

var _ router.AnyInputHandler = (*Handler)(nil)

// New returns a renamer that writes target and accepts any input MIME.
func New(target router.Format) *Handler {
	target.From = false
	target.To = true
	return &Handler{Target: target}
}

func (h *Handler) Name() string { return "renamer" }

// Ready reports whether Init has run. The renamer has no external
// dependency to probe, so Init always succeeds and Ready is true exactly
// once Init has been called.
func (h *Handler) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.available
}

func (h *Handler) Init(context.Context) error {
	h.availableOnce.Do(func() {
		h.mu.Lock()
		h.available = true
		h.mu.Unlock()
	})
	return nil
}

func (h *Handler) SupportedFormats() []router.Format {
	return []router.Format{h.Target}
}

// SupportAnyInput implements router.AnyInputHandler.
func (h *Handler) SupportAnyInput() bool { return true }

// Convert copies each input file's bytes verbatim under a filename whose
// extension has been swapped to Target's.
func (h *Handler) Convert(_ context.Context, files []router.File, _, to router.Format) ([]router.File, error) {
	if to.MIME != h.Target.MIME {
		return nil, fmt.Errorf("renamer: unsupported target mime %q", to.MIME)
	}

	out := make([]router.File, len(files))
	for i, f := range files {
		out[i] = router.File{
			Name:  renamedFilename(f.Name, to.Extension),
			Bytes: f.Bytes,
		}
	}
	return out, nil
}

func renamedFilename(name, newExt string) string {
	if newExt == "" {
		return name
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return name + newExt
	}
	return strings.TrimSuffix(name, ext) + newExt
}
