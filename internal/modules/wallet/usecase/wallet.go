package usecase

import (
	"context"

	"carepanion/internal/modules/wallet/dto"
	walletin "carepanion/internal/modules/wallet/port/in"
	"carepanion/internal/modules/wallet/service"
)

type Interactor struct {
	svc *service.WalletService
}

func NewInteractor(svc *service.WalletService) walletin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Open(ctx context.Context, name string) (walletin.Connection, error) {
	provider, err := i.svc.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
