package service

import (
	"context"
	"errors"
	"fmt"

	"carepanion/internal/modules/labeling/domain"
	labelingout "carepanion/internal/modules/labeling/port/out"
	"carepanion/internal/platform/clock"
	apperrors "carepanion/internal/platform/errors"

	"go.uber.org/zap"
)

type LabelingService struct {
	clock   clock.Clock
	items   labelingout.ItemSource
	sink    labelingout.LabelSink
	history labelingout.History
	player  labelingout.Player
	logger  *zap.Logger
}

// NewLabelingService wires the collaborators. history and player may be nil.
func NewLabelingService(clock clock.Clock, items labelingout.ItemSource, sink labelingout.LabelSink, history labelingout.History, player labelingout.Player, logger *zap.Logger) *LabelingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelingService{clock: clock, items: items, sink: sink, history: history, player: player, logger: logger}
}

// Next fetches the next item, translating an empty queue to ErrNoMoreItems.
func (s *LabelingService) Next(ctx context.Context) (domain.Item, error) {
	item, err := s.items.Next(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.Item{}, domain.ErrNoMoreItems
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("load next item: %w", err)
	}
	return item, nil
}

// Submit sends the label and records it locally. A backend error is
// returned as is so its detail reaches the user unprefixed. A failed local
// record is logged and never fails the submission.
func (s *LabelingService) Submit(ctx context.Context, identity string, submission domain.Submission) (domain.Receipt, error) {
	receipt, err := s.sink.Submit(ctx, submission)
	if err != nil {
		s.logger.Warn("label submit failed", zap.Int64("audio_id", submission.AudioID), zap.Error(err))
		return domain.Receipt{}, err
	}
	s.logger.Info("label submitted",
		zap.Int64("audio_id", submission.AudioID),
		zap.Int64("label_id", receipt.LabelID),
		zap.String("tx", receipt.TransactionSignature))
	if s.history != nil {
		entry := domain.NewHistoryEntry(identity, submission, receipt, s.clock.Now())
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.Warn("record label history failed", zap.Int64("label_id", receipt.LabelID), zap.Error(err))
		}
	}
	return receipt, nil
}

func (s *LabelingService) Lifetime(ctx context.Context, identity string) (int, error) {
	if s.history == nil || identity == "" {
		return 0, nil
	}
	return s.history.CountFor(ctx, identity)
}

func (s *LabelingService) History(ctx context.Context, identity string, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.history.List(ctx, identity, limit)
}

func (s *LabelingService) Play(ctx context.Context, item domain.Item) error {
	if s.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	if item.SourceURL == "" {
		return apperrors.Validation("item %d has no audio url", item.ID)
	}
	return s.player.Play(ctx, item.SourceURL)
}
