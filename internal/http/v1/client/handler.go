// Package client serves the tenant endpoints of the tms service.
package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/entity"
	"github.com/janisto/tms-platform/internal/message"
	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/pagination"
	"github.com/janisto/tms-platform/internal/platform/respond"
	clientsvc "github.com/janisto/tms-platform/internal/service/client"
)

const cursorType = "client"

var tags = []string{"Client"}

// Register wires client routes into the provided API router. prefix is the
// path the API is mounted under and is used in pagination links.
func Register(hapi huma.API, p *respond.Pipeline, svc *clientsvc.Service, prefix string) {
	h := &handler{svc: svc, base: prefix + "/v1/client"}

	respond.Register(hapi, p, respond.Route{
		OperationID:    "list-clients",
		Method:         http.MethodGet,
		Path:           "/v1/client",
		Summary:        "Get all clients",
		Description:    "Returns clients ordered by id. Follow the Link header for the next page.",
		Tags:           tags,
		SuccessMessage: "Success get all clients",
	}, h.list)

	respond.Register(hapi, p, respond.Route{
		OperationID:    "create-client",
		Method:         http.MethodPost,
		Path:           "/v1/client",
		Summary:        "Create client",
		Tags:           tags,
		SuccessTag:     message.DataCreated,
		SuccessStatus:  http.StatusCreated,
		SuccessMessage: "Success create client",
		FailureMessage: "Failed create client",
	}, h.create)

	respond.Register(hapi, p, respond.Route{
		OperationID:    "test-stored-procedure",
		Method:         http.MethodGet,
		Path:           "/v1/client/test-sp",
		Summary:        "Test stored procedure",
		Tags:           tags,
		SuccessMessage: "Success test stored procedure",
	}, h.testProcedure)

	respond.Register(hapi, p, respond.Route{
		OperationID:    "get-client",
		Method:         http.MethodGet,
		Path:           "/v1/client/{id}",
		Summary:        "Find client by id",
		Tags:           tags,
		SuccessMessage: "Success find client by id",
	}, h.get)
}

type handler struct {
	svc  *clientsvc.Service
	base string
}

func (h *handler) list(ctx context.Context, in *ListInput) (*respond.Reply[ListData], error) {
	cursor, err := pagination.Decode(in.Cursor, cursorType)
	if err != nil {
		return nil, apperr.BadRequestFor("cursor", err.Error())
	}
	limit := in.PageSize()
	rows, err := h.svc.List(ctx, cursor.ID, limit)
	if err != nil {
		return nil, err
	}
	page := pagination.Keyset(rows, limit, cursorType, func(c entity.Client) int64 { return c.ID }, h.base, in.LinkQuery())
	applog.LogInfo(ctx, "clients listed", zap.Int("count", len(page.Items)), zap.Int64("after_id", cursor.ID))

	items := page.Items
	if items == nil {
		items = []entity.Client{}
	}
	return &respond.Reply[ListData]{
		Data: ListData{Items: items, NextCursor: page.NextCursor},
		Link: page.LinkHeader,
	}, nil
}

func (h *handler) create(ctx context.Context, in *CreateInput) (*respond.Reply[entity.Client], error) {
	c, err := h.svc.CreateClient(ctx, clientsvc.CreateParams{
		ClientName: in.Body.ClientName,
		ClientCode: in.Body.ClientCode,
		ClientID:   in.Body.ClientID,
		ClientKey:  in.Body.ClientKey,
		ClientUID:  in.Body.ClientUID,
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("created client not readable")
	}
	applog.LogInfo(ctx, "client created", zap.String("client_sid", c.ClientSid))
	return respond.OK(*c), nil
}

func (h *handler) testProcedure(ctx context.Context, _ *struct{}) (*respond.Reply[ProcedureRows], error) {
	rows, err := h.svc.RunTestProcedure(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return respond.OK(ProcedureRows(rows)), nil
}

func (h *handler) get(ctx context.Context, in *GetInput) (*respond.Reply[entity.Client], error) {
	c, err := h.svc.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return respond.OK(*c), nil
}
