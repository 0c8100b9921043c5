package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/logging"
	"github.com/internhub/bulkimport/internal/spreadsheet"
)

// readUpload extracts and parses the uploaded spreadsheet from a multipart
// form. Returns the parsed sheet along with the original file name.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*spreadsheet.Sheet, string, []byte, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, "", nil, fmt.Errorf("file too large or invalid form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", nil, fmt.Errorf("no file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", nil, fmt.Errorf("read file: %w", err)
	}

	sheet, err := spreadsheet.Parse(header.Filename, data)
	if err != nil {
		return nil, "", nil, err
	}
	return sheet, header.Filename, data, nil
}

// handleValidate runs a file through the variant's rule set and returns the
// valid/invalid partition without persisting anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	sheet, _, _, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	review, err := s.service.Validate(variant, sheet)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, review)
}

// handleImport validates and submits a file. With async=true the rows are
// processed in the background and only a job id is returned; otherwise the
// response carries the full per-record outcome envelope.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	sheet, fileName, _, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	institutionID := r.FormValue("institutionId")
	if institutionID == "" {
		writeError(w, http.StatusBadRequest, "missing institutionId")
		return
	}

	logger := logging.WithFields(r.Context(), "variant", variant, "institution_id", institutionID)

	if r.FormValue("async") == "true" {
		jobID, err := s.service.EnqueueImport(r.Context(), variant, institutionID, fileName, sheet)
		if err != nil {
			respondError(w, r, err)
			return
		}
		logger.Info("import enqueued", "job_id", jobID)
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"jobId": jobID})
		return
	}

	result, err := s.service.Import(r.Context(), variant, institutionID, sheet)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info("import completed", "success", result.Success, "failed", result.Failed)
	writeJSON(w, result)
}

// handleDownloadTemplate returns an empty .xlsx with the variant's headers.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	rs, ok := importer.Get(variant)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown variant: "+variant)
		return
	}

	data, err := spreadsheet.Template(rs.Label, rs.Headers())
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.xlsx"`, variant))
	w.Write(data)
}
