package repository

import "context"

// DefaultActor is recorded in created_by and modified_by when the context
// carries no actor.
const DefaultActor = "SYSTEM"

type actorKey struct{}

// WithActor returns a copy of ctx whose writes are stamped with name.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFromContext returns the actor stored by WithActor, or DefaultActor.
func ActorFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok && name != "" {
		return name
	}
	return DefaultActor
}
