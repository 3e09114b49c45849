package di

import (
	"kbox/internal/worker"
	"kbox/transport/http"
)

// App bundles the HTTP server with the background workers that share
// its object graph.
type App struct {
	HTTP   *http.HTTP
	Reaper *worker.Reaper
}
