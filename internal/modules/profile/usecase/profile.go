package usecase

import (
	"context"

	"carepanion/internal/modules/profile/domain"
	"carepanion/internal/modules/profile/dto"
	profilein "carepanion/internal/modules/profile/port/in"
	"carepanion/internal/modules/profile/service"
)

type Interactor struct {
	svc *service.ProfileService
}

func NewInteractor(svc *service.ProfileService) profilein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Setup(ctx context.Context, input dto.SetupInput) (dto.ProfileOutput, error) {
	record, err := i.svc.Setup(ctx, domain.Profile{
		Gender:         input.Gender,
		AgeBracket:     input.AgeBracket,
		HearingAbility: input.HearingAbility,
		Nationality:    input.Nationality,
	})
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(record), nil
}

func (i *Interactor) Get(ctx context.Context) (dto.ProfileOutput, error) {
	record, err := i.svc.Get(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(record), nil
}

func (i *Interactor) Options() dto.OptionsOutput {
	countries := make([]dto.CountryOption, 0, len(domain.Nationalities))
	for _, c := range domain.Nationalities {
		countries = append(countries, dto.CountryOption{Code: c.Code, Name: c.Name})
	}
	return dto.OptionsOutput{
		Genders:          append([]string(nil), domain.Genders...),
		AgeBrackets:      append([]string(nil), domain.AgeBrackets...),
		HearingAbilities: append([]string(nil), domain.HearingAbilities...),
		Nationalities:    countries,
	}
}

func toOutput(record domain.Record) dto.ProfileOutput {
	return dto.ProfileOutput{
		WalletAddress:  record.WalletAddress,
		Gender:         record.Profile.Gender,
		AgeBracket:     record.Profile.AgeBracket,
		HearingAbility: record.Profile.HearingAbility,
		Nationality:    record.Profile.Nationality,
		Complete:       record.Profile.Complete(),
	}
}
