/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"net/http"
	"time"

	"flockr/internal/app/user"
	"flockr/internal/pkg/auth/jwt"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/req"
	"flockr/internal/pkg/resp"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and logs it in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		sess, customErr := deps.Directory.Register(input.Email, input.Password, input.NameFirst, input.NameLast)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respondSession(w, r, deps, sess)
	}
}

// HandleLogin opens a new session for valid credentials.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		sess, customErr := deps.Directory.Login(input.Email, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respondSession(w, r, deps, sess)
	}
}

// HandleLogout closes the session named by the bearer token. It never fails:
// a missing or already closed session reports is_success false.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondSuccess(w, r, map[string]bool{"is_success": false})
			return
		}

		if customErr := deps.Directory.Logout(payload.UserID, payload.SessionID); customErr != nil {
			logx.Info("logout of inactive session", "u_id", payload.UserID)
			resp.RespondSuccess(w, r, map[string]bool{"is_success": false})
			return
		}

		resp.RespondSuccess(w, r, map[string]bool{"is_success": true})
	}
}

func respondSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, sess user.Session) {
	ttl := deps.Config.SessionTTL
	if ttl <= 0 {
		ttl = jwt.SessionExpiration
	}

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: sess.UserID, SessionID: sess.SessionID}, deps.Config.JWTSecret, ttl)
	if err != nil {
		logx.Error(err, "failed to generate session token", "u_id", sess.UserID)
		// The session exists but is unusable without a token.
		_ = deps.Directory.Logout(sess.UserID, sess.SessionID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, map[string]any{
		"u_id":  sess.UserID,
		"token": token,
	})
}

// tokenExpiry is when the token behind payload stops being accepted.
func tokenExpiry(payload *jwt.Payload) time.Time {
	if payload == nil || payload.ExpiresAt == 0 {
		return time.Now().Add(jwt.SessionExpiration)
	}
	return time.Unix(payload.ExpiresAt, 0)
}
