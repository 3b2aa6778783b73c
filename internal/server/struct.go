package server

import (
	"time"

	"github.com/bz2vsr/battlezone-combat-commander/internal/storage"
)

// Server holds the dependencies and configuration required to serve the
// store's read contract over HTTP. It never mutates the store; the poller is
// the only writer.
type Server struct {
	// storage provides the four read queries exposed by this API.
	storage *storage.Repository

	// maxAge bounds which sessions count as "current" for the list endpoint.
	maxAge time.Duration

	// hardLimitCount is the maximum number of requests allowed per IP
	// address within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like
	// X-Forwarded-For when determining the client's real IP address.
	trustProxy bool
}
