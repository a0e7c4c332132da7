package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the project's timeouts. writeTimeout must
// cover the slowest route, which is a bulk upload.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
