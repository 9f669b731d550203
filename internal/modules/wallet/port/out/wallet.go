package out

import (
	"context"

	"carepanion/internal/modules/wallet/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Provider is a running wallet connection.
type Provider interface {
	Connect(ctx context.Context) error
	GetIdentity(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
}

type Launcher interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	Launch(ctx context.Context, manifest domain.Manifest) (Provider, error)
}
