package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/HarshSoni1801/NullByte/internal/api/middleware"
	"github.com/HarshSoni1801/NullByte/internal/app/service"
	"github.com/HarshSoni1801/NullByte/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/{problemID}", h.submitCode)
	r.Post("/{problemID}/run", h.runCode)
	r.Get("/{submissionID}", h.getSubmission)
	r.Get("/problem/{problemID}/history", h.listSubmissions)
}

func (h *SubmissionHandler) submitCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	problemID := chi.URLParam(r, "problemID")

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.submissionService.SubmitCode(r.Context(), userID, problemID, req)
	if err != nil {
		var subErr *service.SubmitError
		if errors.As(err, &subErr) {
			// The pending record is preserved; let the client know which
			// stage broke so it can decide whether to resubmit.
			common.RespondWithErrorDetails(w, common.HTTPStatusFromError(subErr.Err),
				"Error in code submission: "+subErr.Err.Error(),
				map[string]string{"submission_id": subErr.SubmissionID, "stage": string(subErr.Stage)})
			return
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), "Error in code submission: "+err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	problemID := chi.URLParam(r, "problemID")

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.submissionService.RunCode(r.Context(), userID, problemID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), "Error in code run: "+err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	submissionID := chi.URLParam(r, "submissionID")

	sub, err := h.submissionService.GetSubmission(r.Context(), userID, submissionID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	problemID := chi.URLParam(r, "problemID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	subs, err := h.submissionService.ListSubmissions(r.Context(), userID, problemID, limit, offset)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}
