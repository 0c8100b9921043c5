package wizard

import (
	"errors"
	"testing"
	"time"

	"github.com/internhub/bulkimport/internal/importer"
)

func newSession(t *testing.T) (*Manager, string) {
	t.Helper()
	m := NewManager(time.Minute)
	w := m.Create("internships")
	if w.State != StateUpload {
		t.Fatalf("new session state = %q, want %q", w.State, StateUpload)
	}
	return m, w.ID
}

func attach(t *testing.T, m *Manager, id string) {
	t.Helper()
	review := &importer.Result{Valid: []importer.Row{{RowNumber: 2}}}
	if _, err := m.AttachFile(id, "roster.csv", []byte("data"), review); err != nil {
		t.Fatalf("AttachFile() error: %v", err)
	}
}

func TestWizardHappyPath(t *testing.T) {
	m, id := newSession(t)

	attach(t, m, id)
	w, _ := m.Get(id)
	if w.State != StateValidate {
		t.Fatalf("after attach state = %q, want %q", w.State, StateValidate)
	}

	if _, err := m.Confirm(id, false); err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}
	w, _ = m.Get(id)
	if w.State != StateSubmitting {
		t.Fatalf("after confirm state = %q, want %q", w.State, StateSubmitting)
	}

	summary := &importer.UploadResult{Total: 1, Success: 1}
	if _, err := m.Complete(id, summary); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	w, _ = m.Get(id)
	if w.State != StateComplete {
		t.Fatalf("after complete state = %q, want %q", w.State, StateComplete)
	}
	if w.Summary == nil || w.Summary.Success != 1 {
		t.Errorf("summary not recorded: %+v", w.Summary)
	}
}

func TestWizardCannotSkipValidate(t *testing.T) {
	m, id := newSession(t)

	if _, err := m.Confirm(id, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Confirm() from UPLOAD error = %v, want ErrInvalidTransition", err)
	}
	if _, err := m.Complete(id, &importer.UploadResult{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Complete() from UPLOAD error = %v, want ErrInvalidTransition", err)
	}
}

func TestWizardCancelResets(t *testing.T) {
	m, id := newSession(t)
	attach(t, m, id)

	w, err := m.Cancel(id)
	if err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if w.State != StateUpload {
		t.Fatalf("after cancel state = %q, want %q", w.State, StateUpload)
	}
	if w.FileData != nil || w.Review != nil {
		t.Errorf("cancel did not clear file state")
	}
}

// From COMPLETE, only an explicit reset is accepted; every other action is
// rejected and the state is unchanged.
func TestWizardCompleteIsTerminal(t *testing.T) {
	m, id := newSession(t)
	attach(t, m, id)
	if _, err := m.Confirm(id, true); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Complete(id, &importer.UploadResult{JobID: "j1"}); err != nil {
		t.Fatal(err)
	}

	actions := map[string]func() (Wizard, error){
		"attach":  func() (Wizard, error) { return m.AttachFile(id, "x.csv", nil, &importer.Result{}) },
		"confirm": func() (Wizard, error) { return m.Confirm(id, false) },
		"cancel":  func() (Wizard, error) { return m.Cancel(id) },
		"fail":    func() (Wizard, error) { return m.Fail(id) },
	}
	for name, action := range actions {
		t.Run(name, func(t *testing.T) {
			if _, err := action(); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("%s in COMPLETE error = %v, want ErrInvalidTransition", name, err)
			}
			w, _ := m.Get(id)
			if w.State != StateComplete {
				t.Fatalf("state changed to %q", w.State)
			}
		})
	}

	w, err := m.Reset(id)
	if err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if w.State != StateUpload {
		t.Fatalf("after reset state = %q, want %q", w.State, StateUpload)
	}
}

func TestWizardFailReturnsToReview(t *testing.T) {
	m, id := newSession(t)
	attach(t, m, id)
	if _, err := m.Confirm(id, false); err != nil {
		t.Fatal(err)
	}

	w, err := m.Fail(id)
	if err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if w.State != StateValidate {
		t.Fatalf("after fail state = %q, want %q", w.State, StateValidate)
	}
	if w.FileData == nil {
		t.Errorf("fail discarded the file; retry should reuse it")
	}
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(time.Millisecond)
	w := m.Create("students")

	time.Sleep(5 * time.Millisecond)
	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("Sweep() removed %d, want 1", removed)
	}
	if _, err := m.Get(w.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after sweep error = %v, want ErrNotFound", err)
	}
}
