package middleware

import (
	"net/http"
	"runtime/debug"

	"persona-mcp/internal/api/problem"

	"github.com/rs/zerolog/log"
)

// Recovery recovers from panics and returns a 500 error
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("panic", err).Bytes("stack", debug.Stack()).Str("path", r.URL.Path).Msg("Panic recovered")
				problem.InternalError("An unexpected error occurred").Write(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
