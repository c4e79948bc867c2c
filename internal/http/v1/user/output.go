package user

import "time"

// LoginData is returned by a successful login.
type LoginData struct {
	UserSid     string    `json:"user_sid"     doc:"Authenticated user"`
	AccessToken string    `json:"access_token" doc:"Bearer token for protected operations"`
	TokenType   string    `json:"token_type"   doc:"Always Bearer" example:"Bearer"`
	ExpiresIn   int64     `json:"expires_in"   doc:"Seconds until the token expires" example:"86400"`
	ExpiresAt   time.Time `json:"expires_at"   doc:"Token expiry"`
}
