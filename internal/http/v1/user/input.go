package user

import "github.com/danielgtaylor/huma/v2"

// LoginInput is the request body for logging in. Either email or username
// identifies the user; username wins when both are sent.
type LoginInput struct {
	Body struct {
		Email    string `json:"email,omitempty"    doc:"Login email"    example:"jane@example.com" format:"email" required:"false"`
		Username string `json:"username,omitempty" doc:"Login username" example:"jane"             maxLength:"100" required:"false"`
		Password string `json:"password"           doc:"Password"                                  minLength:"1" maxLength:"255"`
	}
}

// Resolve requires one of email and username.
func (in *LoginInput) Resolve(huma.Context) []error {
	if in.Body.Email == "" && in.Body.Username == "" {
		return []error{&huma.ErrorDetail{
			Location: "body.email",
			Message:  "expected required property email to be present",
			Value:    in.Body,
		}}
	}
	return nil
}

// GetInput selects a user by sid.
type GetInput struct {
	Sid string `path:"sid" doc:"User sid" example:"5f0c6d1e-2b7a-4a51-9d0e-1c9b7a6f2e10" minLength:"1"`
}
