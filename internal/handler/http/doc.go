// Package http serves the operator API of mmudzi-server.
//
// Operators use it to watch the data layer (connection mode, queue sizes,
// the sync log), to force a health check or a sync session, and to settle
// conflicts. Request tracing, access logging and optional bearer-token
// authentication are applied here before calls reach the service layer.
package http
