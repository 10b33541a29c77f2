// Package delivery defines the entry points through which the outside world
// reaches the application.
package delivery

import "context"

// Delivery is a long-running transport surface, such as an HTTP server.
// Serve blocks until the surface shuts down or fails.
type Delivery interface {
	Serve(ctx context.Context) error
}
