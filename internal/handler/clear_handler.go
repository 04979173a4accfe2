package handler

import (
	"net/http"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/resp"
)

// HandleClear wipes every user, channel and message, and disconnects all feeds.
// Deferred deliveries scheduled before the wipe stay armed and are dropped
// when they fire. Outside development only a global admin may call it.
func HandleClear(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Config.IsDevelopment() {
			sess, customErr := resolveSession(deps, r)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			if !sess.user.IsGlobalAdmin() {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotGlobalAdmin))
				return
			}
		}

		deps.Store.Reset()
		deps.Hub.Reset()
		logx.Warn("All state cleared.")

		resp.RespondSuccess(w, r, empty)
	}
}
