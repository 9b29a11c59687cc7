// Package kit holds the small transport-independent plumbing shared by the
// repo's frontends: the Endpoint abstraction, middleware chaining, request
// context keys, and MCP tool registration.
package kit

import "context"

// Endpoint is a transport-agnostic operation: typed request in, typed
// response out. MCP and HTTP frontends decode into the request type and
// hand off to an Endpoint.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour (logging,
// auditing, timeouts).
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
