package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/research"
	"github.com/google/uuid"
)

type ResearchHandler struct {
	svc *research.ResearchService
}

func NewResearchHandler(svc *research.ResearchService) *ResearchHandler {
	return &ResearchHandler{svc: svc}
}

type runResearchRequest struct {
	QuestionID         string `json:"question_id,omitempty"`
	Text               string `json:"text"`
	Background         string `json:"background,omitempty"`
	ResolutionCriteria string `json:"resolution_criteria,omitempty"`
	FinePrint          string `json:"fine_print,omitempty"`
	PageURL            string `json:"page_url,omitempty"`
}

type runResearchResponse struct {
	QuestionID uuid.UUID `json:"question_id"`
	Report     string    `json:"report"`
}

func (h *ResearchHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	questionID := uuid.New()
	if req.QuestionID != "" {
		id, err := uuid.Parse(req.QuestionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question_id")
			return
		}
		questionID = id
	}

	q := domain.Question{
		ID:                 questionID,
		Text:               req.Text,
		Background:         req.Background,
		ResolutionCriteria: req.ResolutionCriteria,
		FinePrint:          req.FinePrint,
		PageURL:            req.PageURL,
	}

	report, err := h.svc.RunResearch(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "research slot unavailable")
		return
	}

	writeJSON(w, http.StatusOK, runResearchResponse{QuestionID: questionID, Report: report})
}
