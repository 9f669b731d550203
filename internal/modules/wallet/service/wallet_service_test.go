package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carepanion/internal/modules/wallet/domain"
	walletout "carepanion/internal/modules/wallet/port/out"
	"carepanion/internal/modules/wallet/service"
)

type staticStore struct {
	manifests []domain.Manifest
}

func (s staticStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeProvider struct {
	connectErr   error
	disconnected bool
}

func (p *fakeProvider) Connect(context.Context) error { return p.connectErr }

func (p *fakeProvider) GetIdentity(context.Context) (string, error) { return "addr", nil }

func (p *fakeProvider) Disconnect(context.Context) error {
	p.disconnected = true
	return nil
}

type fakeLauncher struct {
	provider     *fakeProvider
	lifecycleErr error
	launched     int
}

func (l *fakeLauncher) CheckLifecycle(context.Context, domain.Manifest) error {
	return l.lifecycleErr
}

func (l *fakeLauncher) Launch(context.Context, domain.Manifest) (walletout.Provider, error) {
	l.launched++
	return l.provider, nil
}

func writeBinary(t *testing.T) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet-plugin")
	payload := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(path, payload, 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256(payload)
	return path, hex.EncodeToString(sum[:])
}

func TestDoctorDetectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	bin, _ := writeBinary(t)
	store := staticStore{manifests: []domain.Manifest{{
		Name: "demo", Version: "1.0.0", Binary: bin, SHA256: strings.Repeat("0", 64), Enabled: true,
	}}}
	launcher := &fakeLauncher{}
	results, err := service.NewWalletService(store, launcher, nil).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if !results[0].BinaryReachable || results[0].ChecksumValid || results[0].LifecycleOK {
		t.Fatalf("unexpected doctor result: %+v", results[0])
	}
}

func TestDoctorReportsLifecycle(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t)
	store := staticStore{manifests: []domain.Manifest{
		{Name: "ok", Version: "1.0.0", Binary: bin, SHA256: sum, Enabled: true},
		{Name: "missing", Version: "1.0.0", Binary: bin + ".gone", SHA256: sum, Enabled: true},
	}}
	results, err := service.NewWalletService(store, &fakeLauncher{}, nil).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !results[0].LifecycleOK {
		t.Fatalf("expected lifecycle ok: %+v", results[0])
	}
	if results[1].BinaryReachable || results[1].Error == "" {
		t.Fatalf("expected missing binary error: %+v", results[1])
	}
}

func TestOpenConnectsProvider(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t)
	store := staticStore{manifests: []domain.Manifest{{Name: "envwallet", Version: "1.0.0", Binary: bin, SHA256: sum, Enabled: true}}}
	launcher := &fakeLauncher{provider: &fakeProvider{}}
	provider, err := service.NewWalletService(store, launcher, nil).Open(context.Background(), "envwallet")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	identity, err := provider.GetIdentity(context.Background())
	if err != nil || identity != "addr" {
		t.Fatalf("unexpected identity %q: %v", identity, err)
	}
}

func TestOpenRejectsDisabledAndTamperedProviders(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t)
	store := staticStore{manifests: []domain.Manifest{
		{Name: "off", Version: "1.0.0", Binary: bin, SHA256: sum, Enabled: false},
		{Name: "tampered", Version: "1.0.0", Binary: bin, SHA256: strings.Repeat("b", 64), Enabled: true},
	}}
	launcher := &fakeLauncher{provider: &fakeProvider{}}
	svc := service.NewWalletService(store, launcher, nil)

	if _, err := svc.Open(context.Background(), "off"); !errors.Is(err, domain.ErrProviderDisabled) {
		t.Fatalf("expected ErrProviderDisabled, got %v", err)
	}
	if _, err := svc.Open(context.Background(), "tampered"); !errors.Is(err, domain.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if _, err := svc.Open(context.Background(), "nope"); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
	if launcher.launched != 0 {
		t.Fatalf("expected no launches, got %d", launcher.launched)
	}
}

func TestOpenReleasesProviderWhenConnectFails(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t)
	store := staticStore{manifests: []domain.Manifest{{Name: "envwallet", Version: "1.0.0", Binary: bin, SHA256: sum, Enabled: true}}}
	provider := &fakeProvider{connectErr: errors.New("locked")}
	_, err := service.NewWalletService(store, &fakeLauncher{provider: provider}, nil).Open(context.Background(), "envwallet")
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if !provider.disconnected {
		t.Fatalf("expected provider to be released")
	}
}

func TestListRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	m := domain.Manifest{Name: "dup", Version: "1.0.0", Binary: "/bin/true", SHA256: strings.Repeat("a", 64), Enabled: true}
	_, err := service.NewWalletService(staticStore{manifests: []domain.Manifest{m, m}}, nil, nil).List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}
