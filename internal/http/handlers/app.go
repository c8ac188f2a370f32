package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/composite"
	"server/internal/imageproc"
	"server/internal/jobs"
)

// App bundles the image pipeline components the handlers dispatch into.
// Each server instance owns exactly one of everything; there is no
// process-global state.
type App struct {
	Cache         *imageproc.Cache
	Batch         *imageproc.BatchRunner
	Engine        *composite.Engine
	Jobs          *jobs.Tracker
	Logger        zerolog.Logger
	BatchMaxItems int
}

func NewApp(cache *imageproc.Cache, batch *imageproc.BatchRunner, engine *composite.Engine, tracker *jobs.Tracker, logger zerolog.Logger, batchMaxItems int) *App {
	return &App{
		Cache:         cache,
		Batch:         batch,
		Engine:        engine,
		Jobs:          tracker,
		Logger:        logger,
		BatchMaxItems: batchMaxItems,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
