package in

import (
	"context"

	"carepanion/internal/modules/labeling/dto"
)

type Usecase interface {
	// Begin starts a labeling run for identityRef with a fresh form and a
	// zero labeled count.
	Begin(ctx context.Context, identityRef string) dto.FormOutput
	// End discards the run, for logout.
	End()
	LoadNext(ctx context.Context) (dto.FormOutput, error)
	SetRating(field string, value any) (dto.FormOutput, error)
	SetRatingText(field, raw string) (dto.FormOutput, error)
	Submit(ctx context.Context) (dto.SubmitOutput, error)
	// SubmitCurrent submits like Submit but leaves the form empty instead
	// of loading the next item.
	SubmitCurrent(ctx context.Context) (dto.SubmitOutput, error)
	Reset() dto.FormOutput
	Snapshot() dto.FormOutput
	Play(ctx context.Context) error
	History(ctx context.Context, limit int) (dto.HistoryOutput, error)
	Options() dto.OptionsOutput
}
