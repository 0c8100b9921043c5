// Package wizard implements the three-step bulk-upload flow shared by all
// upload variants:
//
//	UPLOAD (select file, validate)
//	   -> VALIDATE (review valid/invalid tables, pick sync/async)
//	        -> [confirm] -> SUBMITTING -> COMPLETE (summary)
//	        -> [cancel]  -> UPLOAD (reset)
//
// No transition skips VALIDATE, and COMPLETE is terminal until an explicit
// reset returns the wizard to UPLOAD. Invalid transitions return
// ErrInvalidTransition rather than mutating state.
package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/internhub/bulkimport/internal/importer"
)

// State is the wizard's current step.
type State string

const (
	StateUpload     State = "upload"
	StateValidate   State = "validate"
	StateSubmitting State = "submitting"
	StateComplete   State = "complete"
)

// ErrInvalidTransition is returned when an action is not accepted in the
// wizard's current state.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// ErrNotFound is returned when a wizard session does not exist or expired.
var ErrNotFound = errors.New("wizard session not found")

// Wizard is one upload session. All mutations go through the owning
// Manager, which serializes them; callers never mutate fields directly.
type Wizard struct {
	ID        string
	Variant   string
	State     State
	FileName  string
	FileData  []byte // original file bytes, submitted as-is on confirm
	Async     bool
	Review    *importer.Result
	Summary   *importer.UploadResult
	UpdatedAt time.Time
}

// attachFile records a validated file and advances UPLOAD -> VALIDATE.
func (w *Wizard) attachFile(name string, data []byte, review *importer.Result) error {
	if w.State != StateUpload {
		return transitionErr(w.State, "attach file")
	}
	w.FileName = name
	w.FileData = data
	w.Review = review
	w.State = StateValidate
	return nil
}

// confirm advances VALIDATE -> SUBMITTING.
func (w *Wizard) confirm(async bool) error {
	if w.State != StateValidate {
		return transitionErr(w.State, "confirm")
	}
	w.Async = async
	w.State = StateSubmitting
	return nil
}

// complete records the submission summary and advances SUBMITTING -> COMPLETE.
func (w *Wizard) complete(summary *importer.UploadResult) error {
	if w.State != StateSubmitting {
		return transitionErr(w.State, "complete")
	}
	w.Summary = summary
	w.State = StateComplete
	return nil
}

// fail returns a failed submission to the review step for a manual retry.
func (w *Wizard) fail() error {
	if w.State != StateSubmitting {
		return transitionErr(w.State, "fail")
	}
	w.State = StateValidate
	return nil
}

// cancel discards the reviewed file and returns VALIDATE -> UPLOAD.
func (w *Wizard) cancel() error {
	if w.State != StateValidate {
		return transitionErr(w.State, "cancel")
	}
	w.clear()
	return nil
}

// reset starts over after a completed upload. Only accepted in COMPLETE:
// "upload another file" is the single way out of the terminal state.
func (w *Wizard) reset() error {
	if w.State != StateComplete {
		return transitionErr(w.State, "reset")
	}
	w.clear()
	return nil
}

func (w *Wizard) clear() {
	w.FileName = ""
	w.FileData = nil
	w.Async = false
	w.Review = nil
	w.Summary = nil
	w.State = StateUpload
}

func transitionErr(s State, action string) error {
	return fmt.Errorf("%w: cannot %s in state %q", ErrInvalidTransition, action, s)
}

// Manager tracks wizard sessions by id and serializes all state changes.
// Sessions idle longer than ttl are dropped by the sweep loop.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Wizard
	ttl      time.Duration
}

// NewManager creates a Manager whose sessions expire after ttl of inactivity.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Wizard),
		ttl:      ttl,
	}
}

// Create starts a new wizard session for the given upload variant.
func (m *Manager) Create(variant string) *Wizard {
	w := &Wizard{
		ID:        uuid.New().String(),
		Variant:   variant,
		State:     StateUpload,
		UpdatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[w.ID] = w
	m.mu.Unlock()
	return w
}

// Get returns a snapshot of the session with the given id.
func (m *Manager) Get(id string) (Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.sessions[id]
	if !ok {
		return Wizard{}, ErrNotFound
	}
	return *w, nil
}

// update applies fn to the session under the manager lock, refreshing the
// activity timestamp on success.
func (m *Manager) update(id string, fn func(*Wizard) error) (Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.sessions[id]
	if !ok {
		return Wizard{}, ErrNotFound
	}
	if err := fn(w); err != nil {
		return *w, err
	}
	w.UpdatedAt = time.Now()
	return *w, nil
}

// AttachFile records a validated file on the session.
func (m *Manager) AttachFile(id, name string, data []byte, review *importer.Result) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.attachFile(name, data, review) })
}

// Confirm moves the session into SUBMITTING.
func (m *Manager) Confirm(id string, async bool) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.confirm(async) })
}

// Complete records the submission summary.
func (m *Manager) Complete(id string, summary *importer.UploadResult) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.complete(summary) })
}

// Fail returns a failed submission to the review step.
func (m *Manager) Fail(id string) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.fail() })
}

// Cancel discards the reviewed file.
func (m *Manager) Cancel(id string) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.cancel() })
}

// Reset starts the session over after completion.
func (m *Manager) Reset(id string) (Wizard, error) {
	return m.update(id, func(w *Wizard) error { return w.reset() })
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Sweep removes sessions idle longer than the manager's ttl and returns the
// number removed. Call periodically from a background goroutine.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, w := range m.sessions {
		if w.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
