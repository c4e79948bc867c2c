// Package client serves the unpaginated client listing of the tms service.
package client

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/platform/respond"
	clientsvc "github.com/janisto/tms-platform/internal/service/client"
)

// Register wires the v2 client routes into the provided API router.
func Register(hapi huma.API, p *respond.Pipeline, svc *clientsvc.Service) {
	h := &handler{svc: svc}

	respond.Register(hapi, p, respond.Route{
		OperationID:    "list-clients-v2",
		Method:         http.MethodGet,
		Path:           "/v2/client",
		Summary:        "List every client",
		Description:    "Returns all clients in id order without paging.",
		Tags:           []string{"Client"},
		SuccessMessage: "Success get all clients",
	}, h.list)
}

type handler struct {
	svc *clientsvc.Service
}

func (h *handler) list(ctx context.Context, _ *struct{}) (*respond.Reply[[]entity.Client], error) {
	rows, err := h.svc.All(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []entity.Client{}
	}
	return respond.OK(rows), nil
}
