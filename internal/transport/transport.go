// Package transport defines the interface for the servers glass exposes.
//
// The HTTP transport carries the assistant API and the web UI. The gRPC
// transport only serves health checks and reflection so that orchestrators
// can probe the process without speaking HTTP.
package transport

import "context"

// Transport is the interface every server adapter implements.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting connections. It blocks until the context is
	// cancelled or the server fails.
	Listen(ctx context.Context) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
