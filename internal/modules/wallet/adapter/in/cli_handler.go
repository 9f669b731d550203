package in

import (
	"context"

	"carepanion/internal/modules/wallet/dto"
	walletin "carepanion/internal/modules/wallet/port/in"
)

type CLIHandler struct {
	usecase walletin.Usecase
}

func NewCLIHandler(usecase walletin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}
