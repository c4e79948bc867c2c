// Package routes wires the versioned operations of each HTTP service.
package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/tms-platform/internal/http/v1/client"
	"github.com/janisto/tms-platform/internal/http/v1/configuration"
	"github.com/janisto/tms-platform/internal/http/v1/hello"
	"github.com/janisto/tms-platform/internal/http/v1/user"
	clientv2 "github.com/janisto/tms-platform/internal/http/v2/client"
	"github.com/janisto/tms-platform/internal/platform/auth"
	"github.com/janisto/tms-platform/internal/platform/respond"
	clientsvc "github.com/janisto/tms-platform/internal/service/client"
	configsvc "github.com/janisto/tms-platform/internal/service/configuration"
	usersvc "github.com/janisto/tms-platform/internal/service/user"
)

// TMS holds the services behind the tms API.
type TMS struct {
	Verifier auth.Verifier
	Clients  *clientsvc.Service
	Users    *usersvc.Service
}

// Centralize holds the services behind the centralize API.
type Centralize struct {
	Configuration *configsvc.Service
}

// RegisterTMS wires the tms routes into the provided API router.
func RegisterTMS(api huma.API, p *respond.Pipeline, svc TMS) {
	prefix := apiPrefix(api)

	// Apply auth middleware for protected endpoints
	addBearerScheme(api)
	api.UseMiddleware(auth.NewAuthMiddleware(api, svc.Verifier))

	client.Register(api, p, svc.Clients, prefix)
	clientv2.Register(api, p, svc.Clients)
	user.Register(api, p, svc.Users)
}

// RegisterCentralize wires the centralize routes into the provided API router.
func RegisterCentralize(api huma.API, p *respond.Pipeline, svc Centralize) {
	hello.Register(api, p)
	configuration.Register(api, p, svc.Configuration)
}

func addBearerScheme(api huma.API) {
	oapi := api.OpenAPI()
	if oapi.Components == nil {
		oapi.Components = &huma.Components{}
	}
	if oapi.Components.SecuritySchemes == nil {
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oapi.Components.SecuritySchemes[auth.SecurityScheme] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
