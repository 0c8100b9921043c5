package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/logging"
	"github.com/internhub/bulkimport/internal/storage"
)

// jobResponse is the polling payload for a background import.
type jobResponse struct {
	ID       string                 `json:"id"`
	Variant  string                 `json:"variant"`
	FileName string                 `json:"fileName,omitempty"`
	Status   storage.JobStatus      `json:"status"`
	Error    string                 `json:"error,omitempty"`
	Result   *importer.UploadResult `json:"result,omitempty"`
}

// handleJobStatus returns the current state of a background import job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, result, err := s.service.JobStatus(r.Context(), jobID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, jobResponse{
		ID:       job.ID,
		Variant:  job.Variant,
		FileName: job.FileName,
		Status:   job.Status,
		Error:    job.Error,
		Result:   result,
	})
}

// handleJobRollback deletes every record a job inserted.
func (s *Server) handleJobRollback(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	deleted, err := s.service.Rollback(r.Context(), jobID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("job rolled back", "job_id", jobID, "deleted", deleted)
	writeJSON(w, map[string]int64{"deleted": deleted})
}
