// Package host implements the HTTP surface over internal/router: a
// single POST /convert endpoint accepting a multipart upload, debounced
// the same way the teacher debounces duplicate Kobo requests, returning
// the converted file or one of spec's timeout/no-route statuses.
package host

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediarouter/internal/debounce"
	"mediarouter/internal/httpx"
	"mediarouter/internal/reqctx"
	"mediarouter/internal/router"
)

// Host binds an *router.Router to the /convert HTTP contract.
type Host struct {
	router         *router.Router
	debounceWindow time.Duration
	log            *slog.Logger
}

// New builds a Host. debounceWindow <= 0 disables request coalescing.
func New(rt *router.Router, debounceWindow time.Duration, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{router: rt, debounceWindow: debounceWindow, log: log}
}

// Handler returns the mux serving the /convert endpoint, wrapped in the
// debounce middleware when a positive window is configured.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()
	convert := h.handleConvert
	if h.debounceWindow > 0 {
		convert = debounce.NewDebounceMiddleware(h.debounceWindow)(convert)
	}
	mux.HandleFunc("POST /convert", convert)
	return mux
}

const maxUploadBytes = 256 << 20 // 256 MiB of multipart form, generous for page-image batches.

func (h *Host) handleConvert(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	log := h.log.With(slog.String("request_id", requestID))
	ctx := reqctx.WithRequestLogger(r.Context(), log)
	log = reqctx.Logger(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	mode := router.Simple
	if strings.EqualFold(r.FormValue("mode"), "advanced") {
		mode = router.Advanced
	}

	files, err := readUploadedFiles(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(files) == 0 {
		http.Error(w, "at least one \"file\" part is required", http.StatusBadRequest)
		return
	}

	registry := h.router.Registry()
	input, ok := parseOptionKey(registry, r.FormValue("input"), true)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown input option %q", r.FormValue("input")), http.StatusBadRequest)
		return
	}
	target, ok := parseOptionKey(registry, r.FormValue("output"), mode == router.Advanced)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown output option %q", r.FormValue("output")), http.StatusBadRequest)
		return
	}

	result, err := h.router.Convert(ctx, files, input, target, router.NoopProgress{})
	switch {
	case err == nil:
		h.writeResult(w, result, mode)
	case errors.Is(err, router.ErrNoRoute):
		log.Info("no conversion route", slog.String("input", input.Format.MIME), slog.String("target", target.Format.MIME))
		http.Error(w, router.ErrNoRoute.Error(), http.StatusNotFound)
	case errors.Is(err, router.ErrTimeout):
		log.Warn("search timed out with no work done")
		http.Error(w, router.ErrTimeout.Error(), http.StatusGatewayTimeout)
	default:
		log.Error("conversion failed", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeResult streams the final file back to the caller, or — for a
// partial result — returns 409 with a marker header naming how far the
// chain got, leaving the decision to fetch the intermediate to the UI.
func (h *Host) writeResult(w http.ResponseWriter, result *router.SearchResult, mode router.Mode) {
	if len(result.Files) == 0 {
		http.Error(w, "conversion produced no output", http.StatusInternalServerError)
		return
	}
	out := result.Files[0]

	scratch, err := os.CreateTemp("", "mediarouter-convert-*"+filepath.Ext(out.Name))
	if err != nil {
		http.Error(w, fmt.Sprintf("stage output: %v", err), http.StatusInternalServerError)
		return
	}
	path := scratch.Name()
	if _, err := scratch.Write(out.Bytes); err != nil {
		scratch.Close()
		os.Remove(path)
		http.Error(w, fmt.Sprintf("stage output: %v", err), http.StatusInternalServerError)
		return
	}
	scratch.Close()

	if result.Outcome == router.OutcomePartial {
		w.Header().Set("X-Conversion-Partial", "true")
		w.Header().Set("X-Conversion-Stopped-At", result.Chain[len(result.Chain)-1].Format.MIME)
		w.WriteHeader(http.StatusConflict)
	}

	if err := httpx.SendFile(w, path, out.Name); err != nil {
		h.log.Error("send converted file", slog.Any("error", err))
	}
}

func readUploadedFiles(r *http.Request) ([]router.File, error) {
	form := r.MultipartForm
	if form == nil {
		return nil, nil
	}
	headers := form.File["file"]
	out := make([]router.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err)
		}
		out = append(out, router.File{Name: fh.Filename, Bytes: data})
	}
	return out, nil
}

// parseOptionKey resolves an "handlerName:formatMime" key, or (when
// requireHandler is false) a bare "formatMime" key against the first
// writable option whose format matches — simple mode's output doesn't
// name a handler, since any handler able to close the chain at that MIME
// is acceptable.
func parseOptionKey(registry *router.FormatRegistry, key string, requireHandler bool) (router.Option, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return router.Option{}, false
	}

	if handlerName, mime, ok := strings.Cut(key, ":"); ok {
		return registry.FindInputOption(handlerName, mime)
	}
	if requireHandler {
		return router.Option{}, false
	}

	for _, opt := range registry.Options() {
		if opt.Format.MIME == key && opt.Format.To {
			return opt, true
		}
	}
	return router.Option{}, false
}

