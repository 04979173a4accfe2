/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in responses sent to clients. Every code belongs to one of
the two error kinds surfaced by the engine (see Kind).
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Identity, Session and Profile Errors
const (
	// ErrUnauthorized indicates the session token is missing, invalid or logged out.
	ErrUnauthorized = 2001

	// ErrInvalidEmail indicates the email address is malformed.
	ErrInvalidEmail = 2002

	// ErrEmailTaken indicates the email address is already registered.
	ErrEmailTaken = 2003

	// ErrInvalidPassword indicates the password does not satisfy the length rule.
	ErrInvalidPassword = 2004

	// ErrInvalidName indicates a first or last name outside 1..50 characters or all whitespace.
	ErrInvalidName = 2005

	// ErrInvalidCredentials indicates an unknown email or wrong password on login.
	ErrInvalidCredentials = 2006

	// ErrUserNotFound indicates the referenced user id does not exist.
	ErrUserNotFound = 2007

	// ErrInvalidHandle indicates a handle outside 3..20 characters.
	ErrInvalidHandle = 2008

	// ErrHandleTaken indicates the handle is in use by another user.
	ErrHandleTaken = 2009

	// ErrNotGlobalAdmin indicates the caller lacks the global admin role.
	ErrNotGlobalAdmin = 2010

	// ErrInvalidRole indicates an unknown permission id.
	ErrInvalidRole = 2011
)

// 3xxx: Channel and Membership Errors
const (
	// ErrChannelNotFound indicates the channel id does not exist.
	ErrChannelNotFound = 3001

	// ErrInvalidChannelName indicates a channel name outside 1..20 characters or all whitespace.
	ErrInvalidChannelName = 3002

	// ErrPrivateChannel indicates a non-admin attempted to join a private channel.
	ErrPrivateChannel = 3003

	// ErrNotMember indicates the caller is not a member of the channel.
	ErrNotMember = 3004

	// ErrNotOwner indicates the caller is neither channel owner nor global admin.
	ErrNotOwner = 3005

	// ErrAlreadyOwner indicates the target already belongs to the owner-set.
	ErrAlreadyOwner = 3006

	// ErrNotAnOwner indicates the target is not in the owner-set.
	ErrNotAnOwner = 3007

	// ErrTargetNotMember indicates the target user is not a member of the channel.
	ErrTargetNotMember = 3008
)

// 4xxx: Message Errors
const (
	// ErrMessageNotFound indicates the message id does not exist (or was removed).
	ErrMessageNotFound = 4001

	// ErrMessageEmpty indicates an empty message body.
	ErrMessageEmpty = 4002

	// ErrMessageContentTooLong indicates that the message body exceeded the maximum length limit.
	ErrMessageContentTooLong = 4003

	// ErrNotMessageEditor indicates the caller is not the sender, a channel owner or the global admin.
	ErrNotMessageEditor = 4004

	// ErrSendTimeInPast indicates a scheduled send time earlier than now.
	ErrSendTimeInPast = 4005

	// ErrInvalidStart indicates a pagination offset past the end of the channel log.
	ErrInvalidStart = 4006

	// ErrInvalidReact indicates an unsupported reaction kind.
	ErrInvalidReact = 4007

	// ErrNotReacted indicates the caller has no reaction of that kind on the message.
	ErrNotReacted = 4008

	// ErrAlreadyPinned indicates the message is already pinned.
	ErrAlreadyPinned = 4009

	// ErrNotPinned indicates the message is not pinned.
	ErrNotPinned = 4010

	// ErrInvalidPruneCount indicates a prune count outside 1..N.
	ErrInvalidPruneCount = 4011
)

// 5xxx: Standup Errors
const (
	// ErrInvalidStandupLength indicates a non-positive standup length.
	ErrInvalidStandupLength = 5001

	// ErrStandupActive indicates a standup is already running in the channel.
	ErrStandupActive = 5002

	// ErrStandupInactive indicates no standup is running in the channel.
	ErrStandupInactive = 5003
)

// 9xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 9000
)
