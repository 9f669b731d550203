package in

import (
	"context"
	"fmt"

	"carepanion/internal/modules/labeling/dto"
	labelingin "carepanion/internal/modules/labeling/port/in"
)

type CLIHandler struct {
	usecase labelingin.Usecase
}

func NewCLIHandler(usecase labelingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Next shows the item that the backend would hand out next.
func (h CLIHandler) Next(ctx context.Context, identity string) (dto.FormOutput, error) {
	h.usecase.Begin(ctx, identity)
	return h.usecase.LoadNext(ctx)
}

// Submit loads the next item, checks it is the expected one when audioID
// is non-zero, fills in the ratings and submits. The queue is not advanced
// afterwards; `label next` shows the following clip.
func (h CLIHandler) Submit(ctx context.Context, identity string, audioID int64, ratings map[string]string) (dto.SubmitOutput, error) {
	form, err := h.Next(ctx, identity)
	if err != nil {
		return dto.SubmitOutput{Form: form}, err
	}
	if audioID != 0 && form.Item.ID != audioID {
		return dto.SubmitOutput{Form: form}, fmt.Errorf("next item is %d, not %d", form.Item.ID, audioID)
	}
	for _, field := range []string{"comfort_level", "clarity", "speaking_rate", "perceived_empathy", "notes"} {
		raw, ok := ratings[field]
		if !ok {
			continue
		}
		if form, err = h.usecase.SetRatingText(field, raw); err != nil {
			return dto.SubmitOutput{Form: form}, err
		}
	}
	return h.usecase.SubmitCurrent(ctx)
}

func (h CLIHandler) History(ctx context.Context, identity string, limit int) (dto.HistoryOutput, error) {
	h.usecase.Begin(ctx, identity)
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Options() dto.OptionsOutput {
	return h.usecase.Options()
}
