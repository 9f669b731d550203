package in

import (
	"context"

	"carepanion/internal/modules/profile/dto"
	profilein "carepanion/internal/modules/profile/port/in"
)

type CLIHandler struct {
	usecase profilein.Usecase
}

func NewCLIHandler(usecase profilein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (dto.ProfileOutput, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) Setup(ctx context.Context, gender, ageBracket, hearing, nationality string) (dto.ProfileOutput, error) {
	return h.usecase.Setup(ctx, dto.SetupInput{Gender: gender, AgeBracket: ageBracket, HearingAbility: hearing, Nationality: nationality})
}

func (h CLIHandler) Options() dto.OptionsOutput {
	return h.usecase.Options()
}
