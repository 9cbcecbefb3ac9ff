// Package httpserver wraps net/http.Server with environment-driven
// configuration, graceful shutdown on context cancellation or OS signals,
// start/stop hooks, and a health check handler.
package httpserver
