package in

import (
	"context"

	profiledto "carepanion/internal/modules/profile/dto"
	"carepanion/internal/modules/session/dto"
)

type Usecase interface {
	Login(ctx context.Context, identity string) (dto.StateOutput, error)
	LoginWithWallet(ctx context.Context, provider string) (dto.StateOutput, error)
	CompleteProfile(ctx context.Context, input profiledto.SetupInput) (dto.StateOutput, error)
	Logout(ctx context.Context) (dto.StateOutput, error)
	Restore(ctx context.Context) (dto.StateOutput, error)
	Current(ctx context.Context) dto.StateOutput
	// Token is the bearer token for backend calls, empty when logged out.
	Token(ctx context.Context) (string, error)
}
