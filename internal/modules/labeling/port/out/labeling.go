package out

import (
	"context"

	"carepanion/internal/modules/labeling/domain"
)

// ItemSource returns the next unlabeled item. An exhausted queue is
// reported as an error wrapping apperrors.ErrNotFound.
type ItemSource interface {
	Next(ctx context.Context) (domain.Item, error)
}

type LabelSink interface {
	Submit(ctx context.Context, submission domain.Submission) (domain.Receipt, error)
}

type History interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
	CountFor(ctx context.Context, identityRef string) (int, error)
	List(ctx context.Context, identityRef string, limit int) ([]domain.HistoryEntry, error)
}

// Player starts playback and returns without waiting for it to finish.
type Player interface {
	Play(ctx context.Context, url string) error
}
