package brouter

import "context"

// Backend executes a route request and returns the engine's raw reply.
// RemoteBackend and LocalBackend return byte-identical payload shapes.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, req *RouteRequest) ([]byte, error)
	// UploadProfile stores a custom profile and returns the id to route with.
	UploadProfile(ctx context.Context, data []byte) (string, error)
}
