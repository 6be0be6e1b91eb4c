// Package workers runs the background workers of mmudzi-server and stops
// them together on shutdown.
package workers

import "context"

// Worker is a background loop. Start must return promptly and keep the
// loop running until ctx is cancelled or Stop is called. Stop blocks until
// the loop has exited.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
