package in

import (
	"context"

	profiledto "carepanion/internal/modules/profile/dto"
	sessiondto "carepanion/internal/modules/session/dto"
	sessionin "carepanion/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Login uses the wallet provider when one is named, the typed identity
// otherwise.
func (h CLIHandler) Login(ctx context.Context, identity, provider string) (sessiondto.StateOutput, error) {
	if provider != "" && provider != sessiondto.ProviderManual {
		return h.usecase.LoginWithWallet(ctx, provider)
	}
	return h.usecase.Login(ctx, identity)
}

func (h CLIHandler) Logout(ctx context.Context) (sessiondto.StateOutput, error) {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (sessiondto.StateOutput, error) {
	return h.usecase.Restore(ctx)
}

func (h CLIHandler) CompleteProfile(ctx context.Context, gender, ageBracket, hearing, nationality string) (sessiondto.StateOutput, error) {
	return h.usecase.CompleteProfile(ctx, profiledto.SetupInput{
		Gender:         gender,
		AgeBracket:     ageBracket,
		HearingAbility: hearing,
		Nationality:    nationality,
	})
}
