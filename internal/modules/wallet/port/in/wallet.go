package in

import (
	"context"

	"carepanion/internal/modules/wallet/dto"
)

// Connection is a connected wallet. Disconnect releases the provider process.
type Connection interface {
	GetIdentity(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
}

type Usecase interface {
	List(ctx context.Context) ([]dto.ProviderInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Open(ctx context.Context, name string) (Connection, error)
}
