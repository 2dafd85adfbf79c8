package shared

import "context"

type actorContextKey struct{}

// Actor identifies the operator behind a request.
type Actor struct {
	ID   int64
	Name string
}

// ContextWithActor stores the operator in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the operator from context. The zero Actor is
// returned when none was set.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
