package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/restock-backend/api/responses"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
)

// Recoverer turns handler panics into logged 500 responses so one bad
// request cannot take the process down.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				cause := recover()
				if cause == nil {
					return
				}
				err := fmt.Errorf("panic: %v", cause)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "panic", cause)
					logg.Error(ctx, "panic recovered in handler", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
