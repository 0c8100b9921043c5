package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "login.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeSession(t, `{"token":"tk","user":{"name":"Asha","role":"principal","institutionId":"inst-1"}}`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.User.InstitutionID != "inst-1" || s.User.Role != "principal" {
		t.Errorf("unexpected session: %+v", s)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Load() of missing file should fail")
	}
	if _, err := Load(writeSession(t, "{not json")); err == nil {
		t.Errorf("Load() of malformed file should fail")
	}
}

func TestInstitutionID(t *testing.T) {
	tests := []struct {
		name     string
		sess     Session
		override string
		want     string
		wantErr  error
	}{
		{
			name: "own institution",
			sess: Session{User: User{Role: "principal", InstitutionID: "inst-1"}},
			want: "inst-1",
		},
		{
			name:     "override matching own institution",
			sess:     Session{User: User{Role: "principal", InstitutionID: "inst-1"}},
			override: "inst-1",
			want:     "inst-1",
		},
		{
			name:     "directorate acts for any institution",
			sess:     Session{User: User{Role: RoleDirectorate, InstitutionID: "hq"}},
			override: "inst-9",
			want:     "inst-9",
		},
		{
			name:     "principal cannot act for another institution",
			sess:     Session{User: User{Role: "principal", InstitutionID: "inst-1"}},
			override: "inst-9",
			wantErr:  ErrForbiddenInstitution,
		},
		{
			name:    "no institution anywhere",
			sess:    Session{User: User{Role: "principal"}},
			wantErr: ErrNoInstitution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sess.InstitutionID(tt.override)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InstitutionID() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("InstitutionID() = %q, want %q", got, tt.want)
			}
		})
	}
}
