package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"carepanion/internal/modules/wallet/domain"
	walletout "carepanion/internal/modules/wallet/port/out"

	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	Providers []domain.Manifest `yaml:"providers"`
}

// FileManifestStore reads wallets.yaml. Relative binaries resolve against
// the directory holding the file.
type FileManifestStore struct {
	path string
}

func NewFileManifestStore(path string) walletout.ManifestStore {
	return &FileManifestStore{path: path}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read wallet manifest store: %w", err)
	}
	var file manifestFile
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode wallet manifests: %w", err)
	}
	base := filepath.Dir(s.path)
	for i := range file.Providers {
		if file.Providers[i].Binary != "" && !filepath.IsAbs(file.Providers[i].Binary) {
			file.Providers[i].Binary = filepath.Clean(filepath.Join(base, file.Providers[i].Binary))
		}
	}
	if file.Providers == nil {
		return []domain.Manifest{}, nil
	}
	return file.Providers, nil
}
