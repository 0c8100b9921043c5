package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/logging"
	"github.com/internhub/bulkimport/internal/spreadsheet"
	"github.com/internhub/bulkimport/internal/wizard"
)

// wizardResponse is the client view of a wizard session. The raw file bytes
// stay server-side.
type wizardResponse struct {
	ID       string                 `json:"id"`
	Variant  string                 `json:"variant"`
	State    wizard.State           `json:"state"`
	FileName string                 `json:"fileName,omitempty"`
	Review   *importer.Result       `json:"review,omitempty"`
	Summary  *importer.UploadResult `json:"summary,omitempty"`
}

func toWizardResponse(w wizard.Wizard) wizardResponse {
	return wizardResponse{
		ID:       w.ID,
		Variant:  w.Variant,
		State:    w.State,
		FileName: w.FileName,
		Review:   w.Review,
		Summary:  w.Summary,
	}
}

// handleWizardCreate starts a new upload wizard session for a variant.
func (s *Server) handleWizardCreate(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	if _, ok := importer.Get(variant); !ok {
		writeError(w, http.StatusNotFound, "unknown variant: "+variant)
		return
	}

	sess := s.wizards.Create(variant)
	logging.FromContext(r.Context()).Info("wizard created", "wizard_id", sess.ID, "variant", variant)

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, toWizardResponse(*sess))
}

// handleWizardGet returns the current wizard state.
func (s *Server) handleWizardGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.wizards.Get(chi.URLParam(r, "wizardID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, toWizardResponse(sess))
}

// handleWizardAttachFile validates an uploaded file and, if it parses,
// advances the wizard to the review step with the valid/invalid partition.
func (s *Server) handleWizardAttachFile(w http.ResponseWriter, r *http.Request) {
	wizardID := chi.URLParam(r, "wizardID")

	sess, err := s.wizards.Get(wizardID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	sheet, fileName, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	review, err := s.service.Validate(sess.Variant, sheet)
	if err != nil {
		respondError(w, r, err)
		return
	}

	sess, err = s.wizards.AttachFile(wizardID, fileName, data, review)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, toWizardResponse(sess))
}

// handleWizardConfirm submits the reviewed file. The wizard moves through
// SUBMITTING to COMPLETE on success; a submission failure returns it to the
// review step so the user can retry.
func (s *Server) handleWizardConfirm(w http.ResponseWriter, r *http.Request) {
	wizardID := chi.URLParam(r, "wizardID")

	institutionID := r.FormValue("institutionId")
	if institutionID == "" {
		writeError(w, http.StatusBadRequest, "missing institutionId")
		return
	}
	async := r.FormValue("async") == "true"

	sess, err := s.wizards.Confirm(wizardID, async)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// The original file bytes are re-parsed and submitted as-is; the review
	// shown to the user came from exactly these bytes.
	sheet, err := spreadsheet.Parse(sess.FileName, sess.FileData)
	if err != nil {
		s.failWizard(w, r, wizardID, err)
		return
	}

	var summary *importer.UploadResult
	if async {
		jobID, err := s.service.EnqueueImport(r.Context(), sess.Variant, institutionID, sess.FileName, sheet)
		if err != nil {
			s.failWizard(w, r, wizardID, err)
			return
		}
		summary = &importer.UploadResult{JobID: jobID}
	} else {
		summary, err = s.service.Import(r.Context(), sess.Variant, institutionID, sheet)
		if err != nil {
			s.failWizard(w, r, wizardID, err)
			return
		}
	}

	sess, err = s.wizards.Complete(wizardID, summary)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, toWizardResponse(sess))
}

// failWizard returns the session to the review step and reports the error.
func (s *Server) failWizard(w http.ResponseWriter, r *http.Request, wizardID string, cause error) {
	if _, err := s.wizards.Fail(wizardID); err != nil {
		logging.FromContext(r.Context()).Error("wizard fail transition", "wizard_id", wizardID, "error", err)
	}
	respondError(w, r, cause)
}

// handleWizardCancel discards the reviewed file and returns to the upload step.
func (s *Server) handleWizardCancel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.wizards.Cancel(chi.URLParam(r, "wizardID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, toWizardResponse(sess))
}

// handleWizardReset starts the session over after a completed upload.
func (s *Server) handleWizardReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.wizards.Reset(chi.URLParam(r, "wizardID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, toWizardResponse(sess))
}
