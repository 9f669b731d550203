package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrProviderDisabled = errors.New("wallet provider is disabled")
	ErrProviderNotFound = errors.New("wallet provider not found")
	ErrChecksumMismatch = errors.New("wallet provider checksum mismatch")
	ErrProviderTimeout  = errors.New("wallet provider timeout")
	ErrNotConnected     = errors.New("wallet is not connected")
)

var (
	sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)
	namePattern   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Manifest declares an external wallet provider binary.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Binary  string `yaml:"binary"`
	SHA256  string `yaml:"sha256"`
	Enabled bool   `yaml:"enabled"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("wallet provider name is required")
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("wallet provider name %q must be lowercase letters, digits, '-' or '_'", m.Name)
	}
	if m.Version == "" {
		return fmt.Errorf("wallet provider version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("wallet provider binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("wallet provider sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Metadata struct {
	Name    string
	Version string
	Chain   string
}

// FindManifest returns the manifest with the given name.
func FindManifest(manifests []Manifest, name string) (Manifest, error) {
	name = strings.TrimSpace(name)
	for _, m := range manifests {
		if m.Name == name {
			return m, nil
		}
	}
	return Manifest{}, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
}
