// Package delivery defines the contract shared by all inbound transports.
package delivery

import "context"

// Delivery is a long-running inbound surface (HTTP server, worker, ...).
type Delivery interface {
	Serve(ctx context.Context) error
}
