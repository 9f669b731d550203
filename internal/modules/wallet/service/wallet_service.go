package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"carepanion/internal/modules/wallet/domain"
	"carepanion/internal/modules/wallet/dto"
	walletout "carepanion/internal/modules/wallet/port/out"

	"go.uber.org/zap"
)

type WalletService struct {
	store    walletout.ManifestStore
	launcher walletout.Launcher
	logger   *zap.Logger
}

func NewWalletService(store walletout.ManifestStore, launcher walletout.Launcher, logger *zap.Logger) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{store: store, launcher: launcher, logger: logger}
}

func (s *WalletService) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProviderInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.ProviderInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary})
	}
	return out, nil
}

func (s *WalletService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.BinaryReachable = fileExists(m.Binary)
		if result.BinaryReachable {
			result.ChecksumValid = checksumMatches(m.Binary, m.SHA256) == nil
		}
		switch {
		case !result.BinaryReachable:
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		case !result.ChecksumValid:
			result.Error = "checksum mismatch"
		case !m.Enabled:
			result.Error = "disabled"
		case s.launcher != nil:
			if err := s.launcher.CheckLifecycle(ctx, m); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Open launches the named provider and connects it. The caller owns the
// returned provider and must Disconnect it.
func (s *WalletService) Open(ctx context.Context, name string) (walletout.Provider, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	manifest, err := domain.FindManifest(manifests, name)
	if err != nil {
		return nil, err
	}
	if !manifest.Enabled {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderDisabled, manifest.Name)
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return nil, err
	}
	if s.launcher == nil {
		return nil, fmt.Errorf("no wallet launcher configured")
	}
	provider, err := s.launcher.Launch(ctx, manifest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderTimeout, manifest.Name)
		}
		return nil, err
	}
	if err := provider.Connect(ctx); err != nil {
		_ = provider.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("connect wallet %s: %w", manifest.Name, err)
	}
	s.logger.Info("wallet connected", zap.String("provider", manifest.Name), zap.String("version", manifest.Version))
	return provider, nil
}

func (s *WalletService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate wallet provider name: %s", manifest.Name)
		}
		seen[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func checksumMatches(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open wallet provider binary: %w", err)
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("hash wallet provider binary: %w", err)
	}
	if hex.EncodeToString(hash.Sum(nil)) != expected {
		return domain.ErrChecksumMismatch
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
