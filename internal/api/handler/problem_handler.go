package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/HarshSoni1801/NullByte/internal/api/middleware"
	"github.com/HarshSoni1801/NullByte/internal/app/service"
	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.createProblem)
		admin.Put("/{problemID}", h.updateProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	difficulty := model.ProblemDifficulty(r.URL.Query().Get("difficulty"))
	tag := r.URL.Query().Get("tag")

	problems, total, err := h.problemService.ListProblems(r.Context(), page, pageSize, difficulty, tag)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"problems": problems,
		"total":    total,
		"page":     page,
	})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "problemID")
	role, _ := middleware.GetUserRoleFromContext(r.Context())

	problem, err := h.problemService.GetProblem(r.Context(), problemID, role)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		respondProblemError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	problemID := chi.URLParam(r, "problemID")

	var req service.ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), problemID, req)
	if err != nil {
		respondProblemError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

// respondProblemError renders validator failures as the structured
// per-language, per-case payload the authoring UI consumes.
func respondProblemError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationFailedError
	if errors.As(err, &vErr) {
		common.RespondWithErrorDetails(w, http.StatusBadRequest,
			"Reference solution validation failed", vErr.Errors)
		return
	}
	common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
}
