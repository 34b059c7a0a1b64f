// Package httpserver wraps http.Server with address validation, timeouts
// suited to streaming downloads, and graceful shutdown.
package httpserver
