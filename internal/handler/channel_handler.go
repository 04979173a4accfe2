/*
Package handler provides HTTP handler functions for channel management.

Every handler here runs behind requireSession and forwards to the chat Store,
which decides all access and input errors.
*/
package handler

import (
	"net/http"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/req"
	"flockr/internal/pkg/resp"
)

type CreateChannelInput struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type ChannelInput struct {
	ChannelID int `json:"channel_id"`
}

type ChannelMemberInput struct {
	ChannelID int `json:"channel_id"`
	UserID    int `json:"u_id"`
}

// HandleCreateChannel creates a channel owned by the caller.
func HandleCreateChannel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateChannelInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id, customErr := deps.Store.CreateChannel(sessionFrom(r).user.ID, input.Name, input.IsPublic)
		respond(w, r, map[string]int{"channel_id": id}, customErr)
	}
}

// HandleListChannels returns the channels the caller belongs to.
func HandleListChannels(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels, customErr := deps.Store.ListChannels(sessionFrom(r).user.ID)
		respond(w, r, map[string]any{"channels": channels}, customErr)
	}
}

// HandleListAllChannels returns every channel.
func HandleListAllChannels(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels, customErr := deps.Store.ListAllChannels(sessionFrom(r).user.ID)
		respond(w, r, map[string]any{"channels": channels}, customErr)
	}
}

// HandleChannelDetails returns the name, owners and members of a channel.
func HandleChannelDetails(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, customErr := req.QueryInt(r, "channel_id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		details, customErr := deps.Store.Details(sessionFrom(r).user.ID, channelID)
		respond(w, r, details, customErr)
	}
}

// HandleChannelMessages returns one page of a channel's log, newest first.
func HandleChannelMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, customErr := req.QueryInt(r, "channel_id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		start, customErr := req.QueryInt(r, "start")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		page, customErr := deps.Store.Paginate(sessionFrom(r).user.ID, channelID, start)
		respond(w, r, page, customErr)
	}
}

// HandleJoinChannel adds the caller to a channel.
func HandleJoinChannel(deps *AppDeps) http.HandlerFunc {
	return channelAction(deps.Store.Join)
}

// HandleLeaveChannel removes the caller from a channel.
func HandleLeaveChannel(deps *AppDeps) http.HandlerFunc {
	return channelAction(deps.Store.Leave)
}

// HandleInvite adds another user to a channel the caller belongs to.
func HandleInvite(deps *AppDeps) http.HandlerFunc {
	return memberAction(deps.Store.Invite)
}

// HandleAddOwner promotes a member to channel owner.
func HandleAddOwner(deps *AppDeps) http.HandlerFunc {
	return memberAction(deps.Store.AddOwner)
}

// HandleRemoveOwner demotes a channel owner to plain member.
func HandleRemoveOwner(deps *AppDeps) http.HandlerFunc {
	return memberAction(deps.Store.RemoveOwner)
}

// HandleKick removes a member from a channel.
func HandleKick(deps *AppDeps) http.HandlerFunc {
	return memberAction(deps.Store.Kick)
}

// channelAction binds {channel_id} and applies op on behalf of the caller.
func channelAction(op func(uid, channelID int) *errs.CustomError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ChannelInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, op(sessionFrom(r).user.ID, input.ChannelID))
	}
}

// memberAction binds {channel_id, u_id} and applies op to the target user.
func memberAction(op func(uid, channelID, target int) *errs.CustomError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ChannelMemberInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		respond(w, r, empty, op(sessionFrom(r).user.ID, input.ChannelID, input.UserID))
	}
}
