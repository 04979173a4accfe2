package handler

import (
	"net/http"
	"time"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/req"
	"flockr/internal/pkg/resp"
)

type SendInput struct {
	ChannelID int    `json:"channel_id"`
	Message   string `json:"message"`
}

type SendLaterInput struct {
	ChannelID int    `json:"channel_id"`
	Message   string `json:"message"`

	// TimeSent is the delivery instant in unix seconds.
	TimeSent int64 `json:"time_sent"`
}

type MessageInput struct {
	MessageID int `json:"message_id"`
}

type EditInput struct {
	MessageID int    `json:"message_id"`
	Message   string `json:"message"`
}

type ReactInput struct {
	MessageID int `json:"message_id"`
	ReactID   int `json:"react_id"`
}

type PruneInput struct {
	ChannelID int `json:"channel_id"`
	Count     int `json:"count"`
}

// HandleSend appends a message to a channel.
func HandleSend(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id, customErr := deps.Store.Send(sessionFrom(r).user.ID, input.ChannelID, input.Message)
		respond(w, r, map[string]int{"message_id": id}, customErr)
	}
}

// HandleSendLater schedules a message for delivery at time_sent.
func HandleSendLater(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendLaterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id, customErr := deps.Store.SendLater(sessionFrom(r).user.ID, input.ChannelID, input.Message, time.Unix(input.TimeSent, 0))
		respond(w, r, map[string]int{"message_id": id}, customErr)
	}
}

// HandleRemove deletes a message.
func HandleRemove(deps *AppDeps) http.HandlerFunc {
	return messageAction(deps.Store.Remove)
}

// HandlePin pins a message.
func HandlePin(deps *AppDeps) http.HandlerFunc {
	return messageAction(deps.Store.Pin)
}

// HandleUnpin unpins a message.
func HandleUnpin(deps *AppDeps) http.HandlerFunc {
	return messageAction(deps.Store.Unpin)
}

// HandleEdit replaces the text of a message. An empty text removes it.
func HandleEdit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input EditInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, deps.Store.Edit(sessionFrom(r).user.ID, input.MessageID, input.Message))
	}
}

// HandleReact adds the caller's reaction to a message.
func HandleReact(deps *AppDeps) http.HandlerFunc {
	return reactAction(deps.Store.React)
}

// HandleUnreact withdraws the caller's reaction from a message.
func HandleUnreact(deps *AppDeps) http.HandlerFunc {
	return reactAction(deps.Store.Unreact)
}

// HandlePrune removes the most recent count messages of a channel.
func HandlePrune(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PruneInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ids, customErr := deps.Store.Prune(sessionFrom(r).user.ID, input.ChannelID, input.Count)
		respond(w, r, map[string][]int{"message_ids": ids}, customErr)
	}
}

func messageAction(op func(uid, msgID int) *errs.CustomError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input MessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, op(sessionFrom(r).user.ID, input.MessageID))
	}
}

func reactAction(op func(uid, msgID, kind int) *errs.CustomError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ReactInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, op(sessionFrom(r).user.ID, input.MessageID, input.ReactID))
	}
}
