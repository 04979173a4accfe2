/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template, used to
standardize HTTP responses and core error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Status is filled from the Kind when left zero.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Kind: InputError, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Kind: InputError, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Kind: InputError, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Kind: InputError, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Kind: AccessError, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Identity, Session and Profile Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Kind: AccessError, Message: "Invalid token."},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Kind: InputError, Message: "Invalid email."},
	ErrEmailTaken:         {Code: ErrEmailTaken, Kind: InputError, Message: "Email already taken."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Kind: InputError, Message: "Password too short."},
	ErrInvalidName:        {Code: ErrInvalidName, Kind: InputError, Message: "Names must be between 1 and 50 characters."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Kind: InputError, Message: "Incorrect email or password."},
	ErrUserNotFound:       {Code: ErrUserNotFound, Kind: InputError, Message: "Invalid user."},
	ErrInvalidHandle:      {Code: ErrInvalidHandle, Kind: InputError, Message: "Handle must be between 3 and 20 characters."},
	ErrHandleTaken:        {Code: ErrHandleTaken, Kind: InputError, Message: "Handle already taken."},
	ErrNotGlobalAdmin:     {Code: ErrNotGlobalAdmin, Kind: AccessError, Message: "Invalid permission."},
	ErrInvalidRole:        {Code: ErrInvalidRole, Kind: InputError, Message: "Invalid permission id."},

	// 3xxx: Channel and Membership Errors
	ErrChannelNotFound:    {Code: ErrChannelNotFound, Kind: InputError, Message: "Invalid channel."},
	ErrInvalidChannelName: {Code: ErrInvalidChannelName, Kind: InputError, Message: "Channel name must be between 1 and 20 characters."},
	ErrPrivateChannel:     {Code: ErrPrivateChannel, Kind: AccessError, Message: "Channel is private."},
	ErrNotMember:          {Code: ErrNotMember, Kind: AccessError, Message: "User is not a member of the channel."},
	ErrNotOwner:           {Code: ErrNotOwner, Kind: AccessError, Message: "User is not an owner of the channel."},
	ErrAlreadyOwner:       {Code: ErrAlreadyOwner, Kind: InputError, Message: "User is already an owner of the channel."},
	ErrNotAnOwner:         {Code: ErrNotAnOwner, Kind: InputError, Message: "User is not an owner of the channel."},
	ErrTargetNotMember:    {Code: ErrTargetNotMember, Kind: InputError, Message: "Target user is not a member of the channel."},

	// 4xxx: Message Errors
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Kind: InputError, Message: "Invalid message."},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Kind: InputError, Message: "Empty message not allowed."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Kind: InputError, Message: "Message should be 1000 characters or less."},
	ErrNotMessageEditor:      {Code: ErrNotMessageEditor, Kind: AccessError, Message: "Invalid permissions."},
	ErrSendTimeInPast:        {Code: ErrSendTimeInPast, Kind: InputError, Message: "Time sent is in the past."},
	ErrInvalidStart:          {Code: ErrInvalidStart, Kind: InputError, Message: "Invalid start index."},
	ErrInvalidReact:          {Code: ErrInvalidReact, Kind: InputError, Message: "Invalid react id."},
	ErrNotReacted:            {Code: ErrNotReacted, Kind: InputError, Message: "No active react from this user."},
	ErrAlreadyPinned:         {Code: ErrAlreadyPinned, Kind: InputError, Message: "Message is already pinned."},
	ErrNotPinned:             {Code: ErrNotPinned, Kind: InputError, Message: "Message is not pinned."},
	ErrInvalidPruneCount:     {Code: ErrInvalidPruneCount, Kind: InputError, Message: "Invalid number of messages to prune (%d available)."},

	// 5xxx: Standup Errors
	ErrInvalidStandupLength: {Code: ErrInvalidStandupLength, Kind: InputError, Message: "Invalid standup time."},
	ErrStandupActive:        {Code: ErrStandupActive, Kind: InputError, Message: "An active standup is currently running."},
	ErrStandupInactive:      {Code: ErrStandupInactive, Kind: InputError, Message: "No active standup is running."},

	// 9xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Kind: InputError, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
