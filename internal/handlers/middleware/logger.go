package middleware

import (
	"net/http"
	"time"
)

// Card readers retry a failed scan with the same tid, so the request line
// carries the tid and the peer address to tie attempts together
const transactionIDParam = "tid"

type requestLogger interface {
	Info(msg string, args ...any)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(p)
	r.size += size
	return size, err
}

// Only the first status reaches the client; keep that one
func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.status == 0 {
		r.status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func LoggerMiddleware(l requestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			}
			if tid := r.URL.Query().Get(transactionIDParam); tid != "" {
				args = append(args, "tid", tid)
			}
			args = append(args,
				"status", rec.status,
				"size", rec.size,
				"duration", time.Since(start),
			)

			l.Info("HTTP request served", args...)
		})
	}
}
