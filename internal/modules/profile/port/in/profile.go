package in

import (
	"context"

	"carepanion/internal/modules/profile/dto"
)

type Usecase interface {
	Setup(ctx context.Context, input dto.SetupInput) (dto.ProfileOutput, error)
	Get(ctx context.Context) (dto.ProfileOutput, error)
	Options() dto.OptionsOutput
}
