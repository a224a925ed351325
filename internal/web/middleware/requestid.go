package middleware

import (
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/logging"
)

// RequestID tags every request with a short hex ID, exposed in the response
// header and the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
