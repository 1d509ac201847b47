// Package kit holds small transport-agnostic service plumbing: the
// Endpoint abstraction and MCP tool registration.
package kit

import "context"

// Endpoint is a transport-agnostic handler: decode happens at the edge,
// business logic sees typed requests.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares outermost-first.
func Chain(outer Middleware, rest ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(rest) - 1; i >= 0; i-- {
			next = rest[i](next)
		}
		return outer(next)
	}
}
