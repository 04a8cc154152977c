package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/JaimeStill/docket/pkg/handlers"
)

// Recover returns middleware that converts a handler panic into a 500 JSON
// error. http.ErrAbortHandler is re-raised so the server can abort the
// connection as usual.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.Error(
					"handler panic",
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"panic", v,
					"stack", string(debug.Stack()),
				)
				handlers.RespondError(w, logger, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBytes returns middleware that caps request bodies at limit bytes.
// Reads past the limit fail with *http.MaxBytesError. A limit of zero or
// less disables the cap.
func MaxBytes(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
