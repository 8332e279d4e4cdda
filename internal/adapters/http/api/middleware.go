package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/podium/pkg/metrics"
)

// adminTokenHeader carries the credential for administrative routes.
const adminTokenHeader = "X-Admin-Token"

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request counts and latency per endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Microseconds())/1000.0)
	}
}

// AdminOnly guards a handler behind the admin token header.
//
// The comparison is constant time so response timing does not leak how much
// of a guessed token matched. An empty configured token disables the routes
// entirely rather than leaving them open.
func AdminOnly(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			writeError(w, http.StatusUnauthorized, "admin_disabled",
				NewKind("admin guard", ErrUnauthorized))
			return
		}
		presented := r.Header.Get(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized",
				NewKind("admin guard", ErrUnauthorized))
			return
		}
		next(w, r)
	}
}
