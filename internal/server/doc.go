// Package server runs the operator HTTP API together with the background
// workers and stops both on SIGTERM, SIGINT or SIGQUIT.
package server
