package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pzyt/crystal-healing/internal/domain"
)

func (s *Server) handleListCrystals(w http.ResponseWriter, r *http.Request) {
	crystals, err := s.store.ListCrystals()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crystals": crystals})
}

func (s *Server) handleSearchCrystals(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	crystals, err := s.store.SearchCrystals(q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crystals": crystals, "query": q})
}

func (s *Server) handleCrystalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCrystalsByElement accepts either the English element name or the
// Han character.
func (s *Server) handleCrystalsByElement(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "element")
	element := domain.Element(strings.ToLower(raw))
	if !element.Valid() {
		if fromHan, ok := domain.ElementFromHan(raw); ok {
			element = fromHan
		} else {
			writeError(w, http.StatusBadRequest, "unknown element")
			return
		}
	}

	crystals, err := s.store.CrystalsByElement(element)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crystals": crystals, "element": element})
}

func (s *Server) handleCrystalsByHealing(w http.ResponseWriter, r *http.Request) {
	property := strings.TrimSpace(chi.URLParam(r, "property"))
	if property == "" {
		writeError(w, http.StatusBadRequest, "healing property is required")
		return
	}
	crystals, err := s.store.CrystalsByHealingProperty(property)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crystals": crystals, "property": property})
}

func (s *Server) handleGetCrystal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid crystal id")
		return
	}
	crystal, err := s.store.CrystalByID(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crystal": crystal})
}
