// Package hello serves the centralize liveness greeting.
package hello

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/tms-platform/internal/platform/logging"
	"github.com/janisto/tms-platform/internal/platform/respond"
)

// Greeting is the message returned by GET /hello.
const Greeting = "Hello World!"

// Register wires hello routes into the provided API router.
func Register(hapi huma.API, p *respond.Pipeline) {
	respond.Register(hapi, p, respond.Route{
		OperationID: "get-hello",
		Method:      http.MethodGet,
		Path:        "/hello",
		Summary:     "Greeting",
		Tags:        []string{"Hello"},
	}, getHandler)
}

func getHandler(ctx context.Context, _ *struct{}) (*respond.Reply[Data], error) {
	applog.LogInfo(ctx, "hello get", zap.String("path", "/hello"))
	return respond.OK(Data{Message: Greeting}), nil
}
