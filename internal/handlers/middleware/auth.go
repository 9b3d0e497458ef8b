package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/cardpay/internal/handlers/render"
)

// Header kiosk admin tools use to present the device credential
const APIKeyHeader = "X-Api-Key"

type authenticator interface {
	Authenticate(ctx context.Context, credential string) error
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// DeviceAuth rejects requests without valid device credential in X-Api-Key header
func DeviceAuth(a authenticator, l warnLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Authenticate(r.Context(), r.Header.Get(APIKeyHeader)); err != nil {
				l.Warn("Device auth failed", "remote_addr", r.RemoteAddr, "uri", r.URL.Path, "error", err)
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
