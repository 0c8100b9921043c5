// Package session provides the typed login session used for institution
// scoping. It replaces the ad hoc parse-on-read login blob with a single
// object loaded once and injected into whatever needs it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// RoleDirectorate is the multi-tenant state-directorate role, which may act
// on behalf of any institution.
const RoleDirectorate = "state-directorate"

// ErrNoInstitution is returned when a session carries no institution and
// none was supplied explicitly.
var ErrNoInstitution = errors.New("no institution in session; pass one explicitly")

// ErrForbiddenInstitution is returned when a non-directorate session asks to
// act on behalf of another institution.
var ErrForbiddenInstitution = errors.New("role cannot act for another institution")

// User is the authenticated identity stored in a login response.
type User struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	InstitutionID string `json:"institutionId"`
}

// Session is the persisted login state.
type Session struct {
	Token string `json:"token,omitempty"`
	User  User   `json:"user"`
}

// Load reads a session from a login-response JSON file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return &s, nil
}

// InstitutionID resolves the institution an operation should be scoped to.
// An empty override uses the session's own institution. A non-empty
// override is honored only for the state-directorate role.
func (s *Session) InstitutionID(override string) (string, error) {
	override = strings.TrimSpace(override)
	if override != "" && override != s.User.InstitutionID {
		if s.User.Role != RoleDirectorate {
			return "", fmt.Errorf("%w: role %q", ErrForbiddenInstitution, s.User.Role)
		}
		return override, nil
	}
	if s.User.InstitutionID == "" && override == "" {
		return "", ErrNoInstitution
	}
	if override != "" {
		return override, nil
	}
	return s.User.InstitutionID, nil
}
