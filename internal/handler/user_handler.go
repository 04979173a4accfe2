package handler

import (
	"net/http"

	"flockr/internal/app/user"
	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/req"
	"flockr/internal/pkg/resp"
)

type SetNameInput struct {
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
}

type SetHandleInput struct {
	Handle string `json:"handle_str"`
}

type PermissionInput struct {
	UserID       int `json:"u_id"`
	PermissionID int `json:"permission_id"`
}

// HandleGetUserProfile returns the profile of the user named by the u_id query parameter.
func HandleGetUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, customErr := req.QueryInt(r, "u_id")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		u, ok := deps.Directory.Get(uid)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]user.User{"user": u})
	}
}

// HandleSetName updates the caller's first and last name.
func HandleSetName(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SetNameInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		caller := sessionFrom(r).user
		respond(w, r, empty, deps.Directory.SetName(caller.ID, input.NameFirst, input.NameLast))
	}
}

// HandleSetHandle updates the caller's display handle.
func HandleSetHandle(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SetHandleInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		caller := sessionFrom(r).user
		respond(w, r, empty, deps.Directory.SetHandle(caller.ID, input.Handle))
	}
}

// HandleListUsers returns every registered user.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string][]user.User{"users": deps.Directory.All()})
	}
}

// HandleChangePermission lets a global admin change another user's role.
func HandleChangePermission(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PermissionInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		caller := sessionFrom(r).user
		respond(w, r, empty, deps.Directory.SetRole(caller.ID, input.UserID, user.Role(input.PermissionID)))
	}
}
