package client

import (
	"net/url"

	"github.com/janisto/tms-platform/internal/platform/pagination"
)

// ListInput defines query parameters for listing clients.
type ListInput struct {
	pagination.Params
	Lang string `query:"lang" doc:"Response language (ID or EN)" example:"EN"`
}

// LinkQuery returns the non-paging parameters carried over to the next page.
func (in *ListInput) LinkQuery() url.Values {
	q := url.Values{}
	if in.Lang != "" {
		q.Set("lang", in.Lang)
	}
	return q
}

// GetInput selects a client by its numeric id.
type GetInput struct {
	ID int64 `path:"id" doc:"Client id" example:"1" minimum:"1"`
}

// CreateInput is the request body for creating a client.
type CreateInput struct {
	Body struct {
		ClientName string `json:"client_name"          doc:"Display name"            example:"Acme Logistics" minLength:"1" maxLength:"255"`
		ClientCode string `json:"client_code"          doc:"Unique client code"      example:"ACME"           minLength:"1" maxLength:"50"`
		ClientID   string `json:"client_id"            doc:"Public client id"        example:"CL-ACME"        minLength:"1" maxLength:"100"`
		ClientKey  string `json:"client_key,omitempty" doc:"Client secret key"                                                maxLength:"255" required:"false"`
		ClientUID  string `json:"client_uid,omitempty" doc:"External reference"                                               maxLength:"100" required:"false"`
	}
}
