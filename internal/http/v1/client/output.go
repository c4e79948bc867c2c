package client

import "github.com/janisto/tms-platform/internal/entity"

// ListData is the data of a client listing page.
type ListData struct {
	Items []entity.Client `json:"items" doc:"Clients ordered by id"`
	// NextCursor is empty on the last page.
	NextCursor string `json:"next_cursor,omitempty" doc:"Cursor of the next page"`
}

// ProcedureRows are the result rows of a stored procedure call.
type ProcedureRows []map[string]any
