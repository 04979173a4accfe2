/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

HandleChannelFeed validates the caller's session and channel membership, upgrades
the connection and hands it to the feed Hub, which owns it from then on.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/resp"
)

// HandleChannelFeed subscribes the caller to the live events of a channel.
func HandleChannelFeed(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			logx.Warn("WebSocket request rejected: Malformed channel id", "channel_id", chi.URLParam(r, "id"))
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		sess := sessionFrom(r)
		// Details applies the same existence and membership checks as the rest of the API.
		if _, customErr := deps.Store.Details(sess.user.ID, channelID); customErr != nil {
			logx.Info("WebSocket connection rejected.", "channel_id", channelID, "u_id", sess.user.ID, "code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if !deps.Hub.Subscribe(channelID, sess.user.ID, sess.payload.SessionID, conn, tokenExpiry(sess.payload)) {
			logx.Warn("WebSocket connection dropped: Feed hub is shut down.", "channel_id", channelID)
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = conn.Close()
			return
		}

		logx.Info("WebSocket connection established and client subscribed", "u_id", sess.user.ID, "channel_id", channelID)
	}
}
