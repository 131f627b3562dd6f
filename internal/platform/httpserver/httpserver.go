package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. writeTimeout should exceed the per-request
// handler timeout so timeout responses can still be written.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
