package respond

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/tms-platform/internal/api"
	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/message"
)

// Route declares an operation and the catalog tags of its outcomes.
type Route struct {
	OperationID string
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string

	// SuccessTag defaults to SUCCESS, SuccessStatus to 200.
	SuccessTag     message.Tag
	SuccessStatus  int
	SuccessMessage string

	// FailureTag replaces the tag of unclassified internal errors only.
	FailureTag     message.Tag
	FailureMessage string

	Security []map[string][]string
}

func (r Route) validate(c *message.Catalog) error {
	if r.OperationID == "" || r.Method == "" || r.Path == "" {
		return errors.New("operation id, method and path are required")
	}
	if r.SuccessStatus != 0 && (r.SuccessStatus < 200 || r.SuccessStatus > 299) {
		return fmt.Errorf("success status %d is not 2xx", r.SuccessStatus)
	}
	if err := c.Require(message.KindSuccess, r.successTag()); err != nil {
		return err
	}
	if r.FailureTag != "" {
		if err := c.Require(message.KindError, r.FailureTag); err != nil {
			return err
		}
	}
	return nil
}

func (r Route) successTag() message.Tag {
	if r.SuccessTag == "" {
		return message.Success
	}
	return r.SuccessTag
}

func (r Route) successStatus() int {
	if r.SuccessStatus == 0 {
		return http.StatusOK
	}
	return r.SuccessStatus
}

// Reply is what a handler returns on success.
type Reply[O any] struct {
	Data O
	// Link is sent as the RFC 8288 Link header when set.
	Link string
}

// OK wraps data in a Reply.
func OK[O any](data O) *Reply[O] {
	return &Reply[O]{Data: data}
}

// Output is the huma response of a registered operation.
type Output[O any] struct {
	Status int
	Link   string `header:"Link" doc:"RFC 8288 pagination links"`
	Body   api.Envelope[O]
}

// Handler is an operation body. Returned errors are classified by the pipeline.
type Handler[I, O any] func(ctx context.Context, in *I) (*Reply[O], error)

// Register adds the operation to api. An invalid route panics, the same way
// huma.Register fails at startup.
func Register[I, O any](hapi huma.API, p *Pipeline, route Route, handler Handler[I, O]) {
	if err := route.validate(p.builder.Catalog()); err != nil {
		panic(fmt.Sprintf("respond: route %s: %v", route.OperationID, err))
	}
	status := route.successStatus()
	tag := route.successTag()

	huma.Register(hapi, huma.Operation{
		OperationID:   route.OperationID,
		Method:        route.Method,
		Path:          route.Path,
		Summary:       route.Summary,
		Description:   route.Description,
		Tags:          route.Tags,
		DefaultStatus: status,
		Security:      route.Security,
	}, func(ctx context.Context, in *I) (*Output[O], error) {
		reply, err := handler(ctx, in)
		if err != nil {
			return nil, p.handlerError(ctx, route, err)
		}
		if reply == nil {
			reply = &Reply[O]{}
		}
		env, err := api.Success(p.builder, Request(ctx), tag, reply.Data, route.SuccessMessage)
		if err != nil {
			return nil, p.handlerError(ctx, route, err)
		}
		p.succeed(ctx, route.OperationID, status, env.StatusCode, env.Message)
		return &Output[O]{Status: status, Link: reply.Link, Body: env}, nil
	})
}

func (p *Pipeline) handlerError(ctx context.Context, route Route, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	exc := apperr.Classify(err)
	if route.FailureTag != "" && exc.Kind == apperr.InternalError &&
		(exc.Tag == "" || exc.Tag == message.InternalServerError) {
		exc.Tag = route.FailureTag
	}
	return p.fail(ctx, route.OperationID, exc, route.FailureMessage)
}
