package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by a session token.
// The token only proves which session was issued; whether that session is still
// valid (not logged out) is decided by the user directory on every request.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the integer identity of the session owner.
	UserID int `json:"u_id"`

	// SessionID names the login session; logout removes it server-side.
	SessionID string `json:"sid"`
}
