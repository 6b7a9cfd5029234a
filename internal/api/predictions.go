package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pzyt/crystal-healing/internal/domain"
)

type createPredictionRequest struct {
	BirthDate     string `json:"birth_date"`
	BirthTime     string `json:"birth_time"`
	BirthLocation string `json:"birth_location"`
}

type predictionResponse struct {
	Prediction       *domain.PredictionRecord `json:"prediction"`
	RemainingCredits int                      `json:"remaining_credits"`
}

func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.BirthDate) == "" || strings.TrimSpace(req.BirthTime) == "" {
		writeError(w, http.StatusBadRequest, "birth_date and birth_time are required")
		return
	}

	claims := claimsFrom(r.Context())
	res, err := s.predictions.Predict(r.Context(), claims.UserID, req.BirthDate, req.BirthTime, req.BirthLocation)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, predictionResponse{
		Prediction:       res.Record,
		RemainingCredits: res.RemainingCredits,
	})
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	list, err := s.predictions.History(claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// Offset pagination over the already-ordered history.
	page, size := pageParams(r)
	start := (page - 1) * size
	if start > len(list) {
		start = len(list)
	}
	end := start + size
	if end > len(list) {
		end = len(list)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": list[start:end],
		"total":       len(list),
		"page":        page,
		"page_size":   size,
	})
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	claims := claimsFrom(r.Context())
	rec, err := s.predictions.Reading(claims.UserID, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prediction": rec})
}

func pageParams(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if size < 1 || size > 100 {
		size = 10
	}
	return page, size
}
