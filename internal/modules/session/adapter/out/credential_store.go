package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"carepanion/internal/modules/session/domain"
	sessionout "carepanion/internal/modules/session/port/out"
	apperrors "carepanion/internal/platform/errors"
)

// FileCredentialStore keeps credentials in a single JSON file readable only
// by the current user.
type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(path string) sessionout.CredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Save(_ context.Context, creds domain.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	payload, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Load(_ context.Context) (domain.Credentials, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Credentials{}, apperrors.ErrNoSession
		}
		return domain.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	creds := domain.Credentials{}
	if err := json.Unmarshal(payload, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return domain.Credentials{}, apperrors.ErrNoSession
	}
	return creds, nil
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
