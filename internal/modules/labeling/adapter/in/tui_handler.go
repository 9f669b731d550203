package in

import (
	"context"

	"carepanion/internal/modules/labeling/dto"
	labelingin "carepanion/internal/modules/labeling/port/in"
)

// TUIHandler exposes the form controller step by step, the way the
// labeling screen drives it.
type TUIHandler struct {
	usecase labelingin.Usecase
}

func NewTUIHandler(usecase labelingin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Begin(ctx context.Context, identity string) dto.FormOutput {
	return h.usecase.Begin(ctx, identity)
}

func (h TUIHandler) End() { h.usecase.End() }

func (h TUIHandler) LoadNext(ctx context.Context) (dto.FormOutput, error) {
	return h.usecase.LoadNext(ctx)
}

func (h TUIHandler) SetScore(field string, value int) (dto.FormOutput, error) {
	return h.usecase.SetRating(field, value)
}

func (h TUIHandler) SetChoice(field, value string) (dto.FormOutput, error) {
	return h.usecase.SetRating(field, value)
}

func (h TUIHandler) Submit(ctx context.Context) (dto.SubmitOutput, error) {
	return h.usecase.Submit(ctx)
}

func (h TUIHandler) Reset() dto.FormOutput { return h.usecase.Reset() }

func (h TUIHandler) Snapshot() dto.FormOutput { return h.usecase.Snapshot() }

func (h TUIHandler) Play(ctx context.Context) error { return h.usecase.Play(ctx) }

func (h TUIHandler) Options() dto.OptionsOutput { return h.usecase.Options() }
