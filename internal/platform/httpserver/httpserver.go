// Package httpserver constructs the process-wide HTTP server. Per-request
// deadlines are enforced by the timeout middleware, so only the header read
// and idle timeouts live here.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the given listen address and root handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
