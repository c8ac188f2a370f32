package handlers

import (
	"net/http"
)

// Health reports process liveness. Storage and the matting backend are
// exercised lazily, so there is nothing deeper to check here.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "image-composer",
	})
}
