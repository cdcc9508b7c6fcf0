package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/observability"
)

// SocialOperation returns a handler for one social-listening operation. The response
// is always 200 with the data envelope unless parameters are invalid.
func (a *API) SocialOperation(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a == nil || a.Social == nil {
			unavailable(w, r, "social listening")
			return
		}

		resp, err := a.Social.Run(r.Context(), operation, r.URL.Query())
		if err != nil {
			observability.OrNop(a.Logger).Debug("Social listening request rejected",
				zap.String("operation", operation),
				zap.Error(err),
			)
			respondWithError(w, r, toEnvelope(r, err, "failed to retrieve "+operation+" data"))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
