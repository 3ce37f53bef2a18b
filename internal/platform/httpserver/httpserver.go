package httpserver

import (
	"net/http"
	"time"
)

// ShutdownTimeout bounds graceful shutdown. Long enough for an in-flight
// moderation poll loop to finish, short enough that a redeploy never hangs.
const ShutdownTimeout = 15 * time.Second

// New builds the confide HTTP server. Only the header read is deadlined here;
// submission handlers can legitimately block for the whole moderation poll
// budget, so per-request limits are left to the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
