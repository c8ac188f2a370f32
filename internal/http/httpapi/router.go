package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// NewRouter wires the image pipeline endpoints. Static file serving is only
// mounted when staticDir is non-empty (file storage backend). rateLimit
// bounds requests per client IP per minute on the image routes; zero
// disables it.
func NewRouter(app *handlers.App, allowedOrigins []string, staticDir string, rateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(allowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api/v1/images", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(middleware.RateLimit(rateLimit, time.Minute))
		}
		r.Post("/remove-background", app.RemoveBackground)
		r.Post("/remove-background/batch", app.RemoveBackgroundBatch)
		r.Post("/create-composite", app.CreateComposite)
		r.Post("/create-composite/async", app.CreateCompositeAsync)
		r.Get("/jobs/{job_id}", app.JobStatus)
	})

	if staticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	return r
}
