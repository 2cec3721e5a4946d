package middleware

import (
	"net/http"
	"strings"
	"time"
)

const walletsPrefix = "/api/v1/wallets/"

// HTTPObserver records served requests.
type HTTPObserver interface {
	ObserveHTTP(method, path string, status int, elapsed time.Duration)
}

// Metrics returns a middleware that records HTTP metrics.
func Metrics(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			observer.ObserveHTTP(r.Method, normalizePath(r.URL.Path), wrapped.statusCode, time.Since(start))
		})
	}
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/wallets/42/credit -> /api/v1/wallets/:id/credit
func normalizePath(path string) string {
	if !strings.HasPrefix(path, walletsPrefix) || len(path) == len(walletsPrefix) {
		return path
	}

	rest := path[len(walletsPrefix):]
	if rest[0] == '/' {
		return path
	}

	suffix := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		suffix = rest[i:]
	}

	return walletsPrefix + ":id" + suffix
}
