package middleware

import (
	"net/http"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
)

// Date stamps every response with the server clock. Clients compare it with
// their own clock to line countdowns up with server-set start times.
func Date(clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Date", clk.Now().UTC().Format(http.TimeFormat))
			next.ServeHTTP(w, r)
		})
	}
}
