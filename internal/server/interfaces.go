package server

// Server is the lifecycle of mmudzi-server.
type Server interface {
	// RunServer serves requests and blocks until a stop signal arrives or
	// the listener fails. It returns after everything has shut down.
	RunServer() error

	// Shutdown stops the HTTP server and the workers.
	Shutdown()
}
