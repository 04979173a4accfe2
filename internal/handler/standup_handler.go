package handler

import (
	"net/http"

	"flockr/internal/pkg/req"
	"flockr/internal/pkg/resp"
)

type StandupStartInput struct {
	ChannelID int `json:"channel_id"`

	// Length is the window duration in seconds.
	Length int `json:"length"`
}

type StandupSendInput struct {
	ChannelID int    `json:"channel_id"`
	Message   string `json:"message"`
}

// HandleStandupStart opens a standup window in a channel.
func HandleStandupStart(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input StandupStartInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		finish, customErr := deps.Store.StandupStart(sessionFrom(r).user.ID, input.ChannelID, input.Length)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, map[string]int64{"time_finish": finish.Unix()})
	}
}

// HandleStandupSend buffers a line into the running standup.
func HandleStandupSend(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input StandupSendInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, deps.Store.StandupSend(sessionFrom(r).user.ID, input.ChannelID, input.Message))
	}
}

// HandleStandupActive reports whether a standup is running in a channel.
func HandleStandupActive(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, customErr := req.QueryInt(r, "channel_id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		status, customErr := deps.Store.StandupActive(sessionFrom(r).user.ID, channelID)
		respond(w, r, status, customErr)
	}
}
