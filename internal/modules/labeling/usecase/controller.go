package usecase

import (
	"context"
	"errors"
	"sync"

	"carepanion/internal/modules/labeling/domain"
	"carepanion/internal/modules/labeling/dto"
	labelingin "carepanion/internal/modules/labeling/port/in"
	"carepanion/internal/modules/labeling/service"
	apperrors "carepanion/internal/platform/errors"

	"go.uber.org/zap"
)

// Controller owns the labeling form. It is safe for concurrent use; the
// lock is never held across backend calls, and the submitting flag keeps
// a second submit or rating change out while one is in flight.
type Controller struct {
	svc    *service.LabelingService
	logger *zap.Logger

	mu          sync.Mutex
	identity    string
	item        *domain.Item
	ratings     domain.Ratings
	loading     bool
	submitting  bool
	failed      bool
	exhausted   bool
	labeled     int
	lifetime    int
	lastErr     error
	lastReceipt *domain.Receipt
}

func NewController(svc *service.LabelingService, logger *zap.Logger) labelingin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{svc: svc, logger: logger}
}

func (c *Controller) Begin(ctx context.Context, identityRef string) dto.FormOutput {
	lifetime, err := c.svc.Lifetime(ctx, identityRef)
	if err != nil {
		c.logger.Warn("read label history failed", zap.Error(err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	c.identity = identityRef
	c.lifetime = lifetime
	return c.snapshot()
}

func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// LoadNext replaces the current item and resets the ratings. An empty
// queue leaves no item, marks the form exhausted and returns
// domain.ErrNoMoreItems.
func (c *Controller) LoadNext(ctx context.Context) (dto.FormOutput, error) {
	c.mu.Lock()
	if c.submitting {
		defer c.mu.Unlock()
		return c.snapshot(), apperrors.ErrSubmissionInFlight
	}
	c.loading = true
	c.mu.Unlock()

	item, err := c.svc.Next(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	switch {
	case errors.Is(err, domain.ErrNoMoreItems):
		c.item = nil
		c.ratings = domain.Ratings{}
		c.exhausted = true
		c.failed = false
		c.lastErr = nil
		return c.snapshot(), err
	case err != nil:
		c.lastErr = err
		return c.snapshot(), err
	}
	c.item = &item
	c.ratings = domain.Ratings{}
	c.exhausted = false
	c.failed = false
	c.lastErr = nil
	return c.snapshot(), nil
}

func (c *Controller) SetRating(field string, value any) (dto.FormOutput, error) {
	return c.update(func(r domain.Ratings) (domain.Ratings, error) {
		return r.Set(domain.Field(field), value)
	})
}

func (c *Controller) SetRatingText(field, raw string) (dto.FormOutput, error) {
	return c.update(func(r domain.Ratings) (domain.Ratings, error) {
		return r.SetText(domain.Field(field), raw)
	})
}

// Submit sends the current ratings. On success the count goes up by one,
// the form resets and the next item is loaded; running out of items then
// is not a submit failure. On failure the ratings are kept for a retry.
func (c *Controller) Submit(ctx context.Context) (dto.SubmitOutput, error) {
	return c.submit(ctx, true)
}

// SubmitCurrent is Submit without fetching the next item, for callers that
// are done after one label.
func (c *Controller) SubmitCurrent(ctx context.Context) (dto.SubmitOutput, error) {
	return c.submit(ctx, false)
}

func (c *Controller) submit(ctx context.Context, advance bool) (dto.SubmitOutput, error) {
	c.mu.Lock()
	if c.submitting {
		defer c.mu.Unlock()
		return dto.SubmitOutput{Form: c.snapshot()}, apperrors.ErrSubmissionInFlight
	}
	submission, err := domain.NewSubmission(c.item, c.ratings)
	if err != nil {
		defer c.mu.Unlock()
		return dto.SubmitOutput{Form: c.snapshot()}, err
	}
	c.submitting = true
	c.failed = false
	identity := c.identity
	c.mu.Unlock()

	receipt, err := c.svc.Submit(ctx, identity, submission)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.failed = true
		c.lastErr = err
		defer c.mu.Unlock()
		return dto.SubmitOutput{Form: c.snapshot()}, err
	}
	c.labeled++
	c.lifetime++
	c.item = nil
	c.ratings = domain.Ratings{}
	c.lastErr = nil
	c.lastReceipt = &receipt
	if !advance {
		defer c.mu.Unlock()
		return dto.SubmitOutput{Receipt: toReceiptOutput(receipt), Form: c.snapshot()}, nil
	}
	c.mu.Unlock()

	form, loadErr := c.LoadNext(ctx)
	if loadErr != nil && !errors.Is(loadErr, domain.ErrNoMoreItems) {
		c.logger.Warn("load next after submit failed", zap.Error(loadErr))
	}
	return dto.SubmitOutput{Receipt: toReceiptOutput(receipt), Form: form}, nil
}

func (c *Controller) Reset() dto.FormOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.submitting {
		c.ratings = domain.Ratings{}
		c.failed = false
		c.lastErr = nil
	}
	return c.snapshot()
}

func (c *Controller) Snapshot() dto.FormOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Play starts the current clip. It does not touch the form.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	item := c.item
	c.mu.Unlock()
	if item == nil {
		return apperrors.Validation("no item loaded")
	}
	return c.svc.Play(ctx, *item)
}

func (c *Controller) History(ctx context.Context, limit int) (dto.HistoryOutput, error) {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()
	entries, err := c.svc.History(ctx, identity, limit)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	total, err := c.svc.Lifetime(ctx, identity)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	out := dto.HistoryOutput{Total: total, Entries: make([]dto.HistoryEntryOutput, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.HistoryEntryOutput{
			LabelID:              e.LabelID,
			AudioID:              e.AudioID,
			ComfortLevel:         e.ComfortLevel,
			Clarity:              e.Clarity,
			SpeakingRate:         string(e.SpeakingRate),
			PerceivedEmpathy:     string(e.PerceivedEmpathy),
			TransactionSignature: e.TransactionSignature,
			SubmittedAt:          e.SubmittedAt,
		})
	}
	return out, nil
}

func (c *Controller) Options() dto.OptionsOutput {
	out := dto.OptionsOutput{MinScore: domain.MinScore, MaxScore: domain.MaxScore}
	for _, r := range domain.SpeakingRates {
		out.SpeakingRates = append(out.SpeakingRates, string(r))
	}
	for _, e := range domain.EmpathyLevels {
		out.EmpathyLevels = append(out.EmpathyLevels, string(e))
	}
	return out
}

func (c *Controller) update(apply func(domain.Ratings) (domain.Ratings, error)) (dto.FormOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return c.snapshot(), apperrors.ErrSubmissionInFlight
	}
	next, err := apply(c.ratings)
	if err != nil {
		return c.snapshot(), err
	}
	c.ratings = next
	c.failed = false
	return c.snapshot(), nil
}

func (c *Controller) clear() {
	c.identity = ""
	c.item = nil
	c.ratings = domain.Ratings{}
	c.loading = false
	c.submitting = false
	c.failed = false
	c.exhausted = false
	c.labeled = 0
	c.lifetime = 0
	c.lastErr = nil
	c.lastReceipt = nil
}

func (c *Controller) snapshot() dto.FormOutput {
	out := dto.FormOutput{
		Ratings: dto.RatingsOutput{
			ComfortLevel:     c.ratings.ComfortLevel,
			Clarity:          c.ratings.Clarity,
			SpeakingRate:     string(c.ratings.SpeakingRate),
			PerceivedEmpathy: string(c.ratings.PerceivedEmpathy),
			Notes:            c.ratings.Notes,
		},
		Loading:       c.loading,
		Submitting:    c.submitting,
		Exhausted:     c.exhausted,
		LabeledCount:  c.labeled,
		LifetimeCount: c.lifetime,
	}
	switch {
	case c.submitting:
		out.State = string(domain.StateSubmitting)
	case c.failed:
		out.State = string(domain.StateFailed)
	default:
		out.State = string(domain.StateOf(c.ratings))
	}
	for _, f := range c.ratings.Missing() {
		out.Missing = append(out.Missing, string(f))
	}
	if c.item != nil {
		out.Item = &dto.ItemOutput{ID: c.item.ID, SourceURL: c.item.SourceURL, DurationSeconds: c.item.DurationSeconds}
	}
	out.CanSubmit = c.item != nil && c.ratings.Complete() && !c.submitting && !c.loading
	if c.lastErr != nil {
		out.LastError = c.lastErr.Error()
	}
	if c.lastReceipt != nil {
		receipt := toReceiptOutput(*c.lastReceipt)
		out.LastReceipt = &receipt
	}
	return out
}

func toReceiptOutput(r domain.Receipt) dto.ReceiptOutput {
	return dto.ReceiptOutput{Status: r.Status, LabelID: r.LabelID, TransactionSignature: r.TransactionSignature}
}
