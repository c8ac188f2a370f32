package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type removeBackgroundRequest struct {
	ImageURL string `json:"image_url"`
}

type removeBackgroundResponse struct {
	Success      bool   `json:"success"`
	NoBGImageURL string `json:"nobg_image_url,omitempty"`
	Message      string `json:"message,omitempty"`
}

// RemoveBackground handles POST /api/v1/images/remove-background.
func (a *App) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	var req removeBackgroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url is required")
		return
	}

	resultURL, err := a.Cache.RemoveBackground(r.Context(), req.ImageURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("url", req.ImageURL).Msg("background removal failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to remove background from image")
		return
	}

	a.json(w, http.StatusOK, removeBackgroundResponse{
		Success:      true,
		NoBGImageURL: resultURL,
		Message:      "Background removed successfully",
	})
}

type removeBackgroundBatchRequest struct {
	ImageURLs []string `json:"image_urls"`
}

// RemoveBackgroundBatch handles POST /api/v1/images/remove-background/batch.
// The item cap keeps one request from monopolizing the workers; the
// pipeline itself assumes small batches.
func (a *App) RemoveBackgroundBatch(w http.ResponseWriter, r *http.Request) {
	var req removeBackgroundBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.ImageURLs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "image_urls cannot be empty")
		return
	}
	if len(req.ImageURLs) > a.BatchMaxItems {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d urls per batch", a.BatchMaxItems))
		return
	}

	report := a.Batch.RemoveBatch(r.Context(), req.ImageURLs)
	a.json(w, http.StatusOK, report)
}

type compositeItemPayload struct {
	ProductID    string `json:"product_id"`
	Category     string `json:"category"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Price        int    `json:"price"`
	ImageURL     string `json:"image_url"`
	LinkURL      string `json:"link_url"`
	NoBGImageURL string `json:"nobg_image_url"`
}

type createCompositeRequest struct {
	Items []compositeItemPayload `json:"items"`
}

type createCompositeResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Result  *domain.CompositeResult `json:"result,omitempty"`
}

// CreateComposite handles POST /api/v1/images/create-composite.
func (a *App) CreateComposite(w http.ResponseWriter, r *http.Request) {
	items, ok := a.decodeCompositeItems(w, r)
	if !ok {
		return
	}

	result, err := a.Engine.Compose(r.Context(), items)
	if err != nil {
		a.compositeError(w, err)
		return
	}

	a.json(w, http.StatusOK, createCompositeResponse{
		Success: true,
		Message: "Composite image created successfully",
		Result:  result,
	})
}

type createCompositeAsyncResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// CreateCompositeAsync handles POST /api/v1/images/create-composite/async.
// Validation still happens inline so the caller gets a 400 instead of a job
// doomed to fail; only the compose itself is detached.
func (a *App) CreateCompositeAsync(w http.ResponseWriter, r *http.Request) {
	items, ok := a.decodeCompositeItems(w, r)
	if !ok {
		return
	}

	jobID := a.Jobs.Create()
	go func() {
		// The request context dies with the response; the job must not.
		ctx := context.Background()
		a.Jobs.MarkProcessing(jobID)
		result, err := a.Engine.Compose(ctx, items)
		if err != nil {
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("composite job failed")
			a.Jobs.Fail(jobID, err.Error())
			return
		}
		a.Jobs.Complete(jobID, result)
	}()

	a.json(w, http.StatusAccepted, createCompositeAsyncResponse{JobID: jobID, Status: domain.JobStatusPending})
}

// JobStatus handles GET /api/v1/images/jobs/{job_id}.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, ok := a.Jobs.Get(jobID)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, job)
}

// decodeCompositeItems parses and validates a composite request body. On
// failure it writes the error response and returns ok=false.
func (a *App) decodeCompositeItems(w http.ResponseWriter, r *http.Request) ([]domain.CompositeItem, bool) {
	var req createCompositeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return nil, false
	}
	if len(req.Items) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "items list cannot be empty")
		return nil, false
	}

	items := make([]domain.CompositeItem, 0, len(req.Items))
	seen := make(map[domain.Category]struct{}, len(req.Items))
	for _, p := range req.Items {
		category := domain.NormalizeCategory(p.Category)
		if !category.Valid() {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid category %q", p.Category))
			return nil, false
		}
		if _, dup := seen[category]; dup {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("duplicate category %s, each category can only appear once", category))
			return nil, false
		}
		seen[category] = struct{}{}
		if p.Price < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "price must be non-negative")
			return nil, false
		}
		if strings.TrimSpace(p.NoBGImageURL) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "nobg_image_url is required for every item")
			return nil, false
		}
		items = append(items, domain.CompositeItem{
			ProductID:    p.ProductID,
			Category:     category,
			Name:         p.Name,
			Brand:        p.Brand,
			Price:        p.Price,
			ImageURL:     p.ImageURL,
			LinkURL:      p.LinkURL,
			NoBGImageURL: p.NoBGImageURL,
		})
	}
	return items, true
}

func (a *App) compositeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoItems), errors.Is(err, domain.ErrDuplicateCategory), errors.Is(err, domain.ErrInvalidCategory):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrAllItemsFailed):
		a.error(w, http.StatusInternalServerError, "internal", "failed to create composite image")
	default:
		a.Logger.Error().Err(err).Msg("composite creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create composite image")
	}
}
