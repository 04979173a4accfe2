/*
Package handler provides the HTTP handlers and routing setup for the Flockr server.

This file defines the main Router, applying middleware for logging, CORS, identity
extraction and IP-based rate limiting before delegating requests to the API and
WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"flockr/internal/pkg/auth/jwt"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/metrics"
	"flockr/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// Everything except /auth, /health, /metrics and /clear requires a live session.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Flockr Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	if deps.Config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Group(func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			if deps.AuthLimiter != nil {
				auth.Use(deps.AuthLimiter.Middleware)
			}
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Post("/logout", HandleLogout(deps))
		})

		api.Delete("/clear", HandleClear(deps))

		api.Group(func(authed chi.Router) {
			authed.Use(requireSession(deps))

			authed.Get("/user/profile", HandleGetUserProfile(deps))
			authed.Put("/user/profile/setname", HandleSetName(deps))
			authed.Put("/user/profile/sethandle", HandleSetHandle(deps))
			authed.Get("/users/all", HandleListUsers(deps))
			authed.Post("/admin/userpermission/change", HandleChangePermission(deps))

			authed.Post("/channels/create", HandleCreateChannel(deps))
			authed.Get("/channels/list", HandleListChannels(deps))
			authed.Get("/channels/listall", HandleListAllChannels(deps))

			authed.Route("/channel", func(ch chi.Router) {
				ch.Get("/details", HandleChannelDetails(deps))
				ch.Get("/messages", HandleChannelMessages(deps))
				ch.Post("/invite", HandleInvite(deps))
				ch.Post("/join", HandleJoinChannel(deps))
				ch.Post("/leave", HandleLeaveChannel(deps))
				ch.Post("/addowner", HandleAddOwner(deps))
				ch.Post("/removeowner", HandleRemoveOwner(deps))
				ch.Post("/kick", HandleKick(deps))
			})

			authed.Route("/message", func(msg chi.Router) {
				msg.Post("/send", HandleSend(deps))
				msg.Post("/sendlater", HandleSendLater(deps))
				msg.Delete("/remove", HandleRemove(deps))
				msg.Put("/edit", HandleEdit(deps))
				msg.Post("/react", HandleReact(deps))
				msg.Post("/unreact", HandleUnreact(deps))
				msg.Post("/pin", HandlePin(deps))
				msg.Post("/unpin", HandleUnpin(deps))
				msg.Post("/prune", HandlePrune(deps))
			})

			authed.Route("/standup", func(su chi.Router) {
				su.Post("/start", HandleStandupStart(deps))
				su.Post("/send", HandleStandupSend(deps))
				su.Get("/active", HandleStandupActive(deps))
			})

			authed.Get("/ws/channel/{id}", HandleChannelFeed(deps, wsUpgrader))
		})
	})

	return r
}
