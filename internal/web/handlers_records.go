package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/internhub/bulkimport/internal/logging"
	"github.com/internhub/bulkimport/internal/storage"
)

// handleListRecords returns an institution's imported records for a variant.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	institutionID := r.URL.Query().Get("institutionId")
	if institutionID == "" {
		writeError(w, http.StatusBadRequest, "missing institutionId")
		return
	}

	records, err := s.service.ListRecords(r.Context(), variant, institutionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if records == nil {
		records = []storage.Record{}
	}

	writeJSON(w, map[string][]storage.Record{"records": records})
}

// handleSetRecordActive toggles a record's active flag.
func (s *Server) handleSetRecordActive(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	recordID := chi.URLParam(r, "recordID")

	var body struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Active == nil {
		writeError(w, http.StatusBadRequest, "body must be JSON with an active field")
		return
	}

	if err := s.service.SetRecordActive(r.Context(), variant, recordID, *body.Active); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("record toggled",
		"variant", variant, "record_id", recordID, "active", *body.Active)
	writeJSON(w, map[string]bool{"active": *body.Active})
}

// handleDeleteRecord removes a record.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	recordID := chi.URLParam(r, "recordID")

	if err := s.service.DeleteRecord(r.Context(), variant, recordID); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("record deleted", "variant", variant, "record_id", recordID)
	w.WriteHeader(http.StatusNoContent)
}

// handleStats returns the stored record count per variant.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"stats": stats})
}
