package handler

import (
	"context"
	"net/http"

	"flockr/internal/app/chat"
	"flockr/internal/app/feed"
	"flockr/internal/app/user"
	"flockr/internal/configs"
	"flockr/internal/pkg/auth/jwt"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/limiter"
	"flockr/internal/pkg/resp"
)

// AppDeps bundles everything the handlers need.
type AppDeps struct {
	Store     *chat.Store
	Directory *user.Directory
	Hub       *feed.Hub
	Config    *configs.AppConfig

	// AuthLimiter throttles the /auth endpoints per IP.
	AuthLimiter *limiter.IPRateLimiter
}

type sessionKey struct{}

// requireSession resolves the bearer token to a live session and stores the
// user in the request context. Requests without one are AccessErrors.
func requireSession(deps *AppDeps) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, cerr := resolveSession(deps, r)
			if cerr != nil {
				resp.RespondError(w, r, cerr)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type session struct {
	user    user.User
	payload *jwt.Payload
}

// resolveSession maps the request's token payload to a live session.
func resolveSession(deps *AppDeps, r *http.Request) (session, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return session{}, errs.NewError(errs.ErrUnauthorized)
	}

	u, cerr := deps.Directory.Resolve(payload.UserID, payload.SessionID)
	if cerr != nil {
		return session{}, cerr
	}
	return session{user: u, payload: payload}, nil
}

// sessionFrom returns the session stored by requireSession.
func sessionFrom(r *http.Request) session {
	s, _ := r.Context().Value(sessionKey{}).(session)
	return s
}

// respond writes data, or cerr when it is set.
func respond(w http.ResponseWriter, r *http.Request, data any, cerr *errs.CustomError) {
	if cerr != nil {
		resp.RespondError(w, r, cerr)
		return
	}
	resp.RespondSuccess(w, r, data)
}

// empty is the payload of operations that return nothing.
var empty = map[string]any{}
