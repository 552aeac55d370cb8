// Package debounce coalesces duplicate concurrent /convert uploads: the
// same client retrying (or a flaky reverse proxy resending) the same
// upload while a conversion is already running gets the one in-flight
// response instead of kicking off a second identical search and handler
// chain.
package debounce

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"mediarouter/internal/cache"
	"mediarouter/internal/httpx"
)

// NewDebounceMiddleware wraps next so that requests sharing a key within
// window get either the in-flight response (via singleflight) or the
// most recently completed one (via a short-TTL cache), rather than each
// re-running the full conversion.
func NewDebounceMiddleware(window time.Duration) func(next http.HandlerFunc) http.HandlerFunc {
	responseCache := cache.NewCache[httptest.ResponseRecorder](cache.CacheConfig{CleanupInterval: time.Second, TTL: window})
	group := singleflight.Group{}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key, err := debounceKey(r)
			if err != nil {
				next(w, r)
				return
			}

			if entry, exists := responseCache.Get(key); exists {
				w.Header().Set("X-Debounce", "true")
				httpx.WriteRecorder(entry, w)
				return
			}

			rw, _, shared := group.Do(key, func() (interface{}, error) {
				rw := httptest.NewRecorder()
				next(rw, r)
				return rw, nil
			})

			recorder := rw.(*httptest.ResponseRecorder)
			responseCache.Set(key, recorder)

			w.Header().Set("X-Shared", strconv.FormatBool(shared))
			httpx.WriteRecorder(recorder, w)
		}
	}
}

// debounceKey hashes the requesting IP, path, and uploaded body together
// so two different uploads to the same endpoint from the same client
// don't collide, while a literal retry of the same upload does. The body
// is restored onto r so the wrapped handler still sees it.
func debounceKey(r *http.Request) (string, error) {
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	h := md5.New()
	h.Write([]byte(ip))
	h.Write([]byte(r.URL.Path))
	h.Write([]byte(r.URL.RawQuery))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}
