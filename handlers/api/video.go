package api

import (
	"mime"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/vindex/errors"
	"github.com/nijaru/vindex/indexer"
	"github.com/nijaru/vindex/models"
	"github.com/nijaru/vindex/services/video"
	"github.com/nijaru/vindex/validation"
)

const maxRequestBody = 1024 * 1024

type VideoHandler struct {
	service   video.Service
	validator *validation.Validator
	logger    *logrus.Logger
}

func NewVideoHandler(service video.Service, validator *validation.Validator, logger *logrus.Logger) *VideoHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VideoHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// HandleSubmit handles POST /api/v1/videos
func (h *VideoHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleSubmit"

	if err := h.validator.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: maxRequestBody,
		AllowedMethods:   []string{http.MethodPost},
	}); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req models.SubmitRequest
	if isJSON(r) {
		if err := readJSON(r, &req); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			respondError(w, r, h.logger, errors.InvalidInput(op, err, "Failed to parse form data"))
			return
		}
		req.URL = r.FormValue("url")
		req.Name = r.FormValue("name")
	}

	sub, err := h.service.Submit(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"video_id": sub.ID,
		"job_id":   sub.JobID,
	}).Info("Indexing job created")

	respondJSON(w, r, http.StatusAccepted, sub)
}

// HandleProgress handles GET /api/v1/videos/{id}/progress. With wait=true
// it blocks until the job is processed or failed.
func (h *VideoHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if err := h.validator.ValidateJobID(jobID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	query := r.URL.Query()
	token := indexer.AccessToken(query.Get("access_token"))

	var (
		p   *indexer.Progress
		err error
	)
	if query.Get("wait") == "true" {
		p, err = h.service.Wait(r.Context(), jobID, token, nil)
	} else {
		p, err = h.service.Progress(r.Context(), jobID, token)
	}
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, r, http.StatusOK, models.NewProgressResponse(p))
}

// HandleToken handles POST /api/v1/token
func (h *VideoHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Token(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, r, http.StatusOK, models.TokenResponse{AccessToken: string(token)})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
