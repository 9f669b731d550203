package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carepanion/internal/modules/labeling/domain"
	"carepanion/internal/modules/labeling/dto"
	labelingin "carepanion/internal/modules/labeling/port/in"
	"carepanion/internal/modules/labeling/service"
	"carepanion/internal/modules/labeling/usecase"
	apperrors "carepanion/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) }

type queue struct {
	mu    sync.Mutex
	items []domain.Item
	err   error
	calls int
}

func (q *queue) Next(context.Context) (domain.Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return domain.Item{}, q.err
	}
	if len(q.items) == 0 {
		return domain.Item{}, &apperrors.APIError{Kind: apperrors.ErrNotFound, Status: 404, Detail: "No more audio files available to label"}
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

type sink struct {
	mu      sync.Mutex
	err     error
	got     []domain.Submission
	release chan struct{}
	entered chan struct{}
}

func (s *sink) Submit(_ context.Context, sub domain.Submission) (domain.Receipt, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Receipt{}, s.err
	}
	s.got = append(s.got, sub)
	return domain.Receipt{Status: "success", LabelID: int64(len(s.got)), TransactionSignature: "sig"}, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (h *memoryHistory) Record(_ context.Context, e domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func (h *memoryHistory) CountFor(_ context.Context, identity string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.entries {
		if e.IdentityRef == identity {
			n++
		}
	}
	return n, nil
}

func (h *memoryHistory) List(_ context.Context, identity string, limit int) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.HistoryEntry
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if h.entries[i].IdentityRef == identity {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

type recordingPlayer struct {
	urls []string
}

func (p *recordingPlayer) Play(_ context.Context, url string) error {
	p.urls = append(p.urls, url)
	return nil
}

type fixture struct {
	queue   *queue
	sink    *sink
	history *memoryHistory
	player  *recordingPlayer
	uc      labelingin.Usecase
}

func newFixture(items ...domain.Item) *fixture {
	f := &fixture{
		queue:   &queue{items: items},
		sink:    &sink{},
		history: &memoryHistory{},
		player:  &recordingPlayer{},
	}
	svc := service.NewLabelingService(fixedClock{}, f.queue, f.sink, f.history, f.player, nil)
	f.uc = usecase.NewController(svc, nil)
	f.uc.Begin(context.Background(), "wallet-1")
	return f
}

func item(id int64) domain.Item {
	return domain.Item{ID: id, SourceURL: "https://example.com/audio/sample.mp3", DurationSeconds: 7}
}

func rateAll(t *testing.T, uc labelingin.Usecase) {
	t.Helper()
	steps := []struct {
		field string
		value any
	}{
		{"comfort_level", 3},
		{"clarity", 4},
		{"speaking_rate", "Medium"},
		{"perceived_empathy", "High"},
	}
	for _, s := range steps {
		if _, err := uc.SetRating(s.field, s.value); err != nil {
			t.Fatalf("set %s: %v", s.field, err)
		}
	}
}

func TestLoadNextResetsRatings(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	form, err := f.uc.LoadNext(context.Background())
	if err != nil {
		t.Fatalf("load next: %v", err)
	}
	if form.Item == nil || form.Item.ID != 2 {
		t.Fatalf("expected item 2, got %+v", form.Item)
	}
	if diff := cmp.Diff(dto.RatingsOutput{}, form.Ratings); diff != "" {
		t.Fatalf("ratings not reset (-want +got):\n%s", diff)
	}
	if form.State != string(domain.StateEmpty) {
		t.Fatalf("expected empty state, got %s", form.State)
	}
}

func TestLoadNextExhaustedIsCompletionState(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	form, err := f.uc.LoadNext(context.Background())
	if !errors.Is(err, domain.ErrNoMoreItems) || !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNoMoreItems wrapping ErrNotFound, got %v", err)
	}
	if form.Item != nil || !form.Exhausted || form.LastError != "" {
		t.Fatalf("expected exhausted form without item or error banner, got %+v", form)
	}
	if snap := f.uc.Snapshot(); snap.Item != nil || !snap.Exhausted {
		t.Fatalf("snapshot disagrees: %+v", snap)
	}
}

func TestSubmitIncompleteForAllCombinations(t *testing.T) {
	t.Parallel()
	values := []struct {
		field string
		value any
	}{
		{"comfort_level", 2},
		{"clarity", 5},
		{"speaking_rate", "Slow"},
		{"perceived_empathy", "Low"},
	}
	for mask := 0; mask < 15; mask++ {
		f := newFixture(item(1))
		if _, err := f.uc.LoadNext(context.Background()); err != nil {
			t.Fatalf("load next: %v", err)
		}
		for bit, v := range values {
			if mask&(1<<bit) != 0 {
				if _, err := f.uc.SetRating(v.field, v.value); err != nil {
					t.Fatalf("set %s: %v", v.field, err)
				}
			}
		}
		before := f.uc.Snapshot()
		out, err := f.uc.Submit(context.Background())
		if !errors.Is(err, apperrors.ErrIncompleteForm) {
			t.Fatalf("mask %04b: expected ErrIncompleteForm, got %v", mask, err)
		}
		if len(f.sink.got) != 0 {
			t.Fatalf("mask %04b: incomplete form reached the backend", mask)
		}
		if diff := cmp.Diff(before, out.Form); diff != "" {
			t.Fatalf("mask %04b: form changed (-before +after):\n%s", mask, diff)
		}
	}
}

func TestSubmitWithoutItemIsIncomplete(t *testing.T) {
	t.Parallel()
	f := newFixture()
	rateAll(t, f.uc)
	if _, err := f.uc.Submit(context.Background()); !errors.Is(err, apperrors.ErrIncompleteForm) {
		t.Fatalf("expected ErrIncompleteForm, got %v", err)
	}
}

func TestSubmitSuccessCountsResetsAndAdvances(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	if _, err := f.uc.SetRating("notes", "gentle"); err != nil {
		t.Fatalf("set notes: %v", err)
	}
	out, err := f.uc.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Form.LabeledCount != 1 || out.Form.LifetimeCount != 1 {
		t.Fatalf("expected counts 1/1, got %d/%d", out.Form.LabeledCount, out.Form.LifetimeCount)
	}
	if diff := cmp.Diff(dto.RatingsOutput{}, out.Form.Ratings); diff != "" {
		t.Fatalf("ratings not reset (-want +got):\n%s", diff)
	}
	if out.Form.Item == nil || out.Form.Item.ID != 2 {
		t.Fatalf("expected next item loaded, got %+v", out.Form.Item)
	}
	if out.Receipt.LabelID != 1 || out.Receipt.TransactionSignature != "sig" {
		t.Fatalf("unexpected receipt %+v", out.Receipt)
	}
	got := f.sink.got[0]
	if got.AudioID != 1 || got.ComfortLevel != 3 || got.Clarity != 4 || got.SpeakingRate != domain.RateMedium || got.PerceivedEmpathy != domain.EmpathyHigh || got.Notes == nil || *got.Notes != "gentle" {
		t.Fatalf("unexpected submission %+v", got)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].IdentityRef != "wallet-1" || !f.history.entries[0].SubmittedAt.Equal(fixedClock{}.Now()) {
		t.Fatalf("expected one history entry, got %+v", f.history.entries)
	}
}

func TestSubmitLastItemEndsExhaustedWithoutError(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	out, err := f.uc.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Form.Exhausted || out.Form.Item != nil || out.Form.LabeledCount != 1 {
		t.Fatalf("expected exhausted form after last label, got %+v", out.Form)
	}
}

func TestSubmitFailureKeepsFormForRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	f.sink.err = &apperrors.APIError{Kind: apperrors.ErrServer, Status: 503, Detail: "Error communicating with Solana"}

	out, err := f.uc.Submit(context.Background())
	if !errors.Is(err, apperrors.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if out.Form.State != string(domain.StateFailed) || out.Form.LabeledCount != 0 {
		t.Fatalf("expected failed state with no count, got %+v", out.Form)
	}
	if out.Form.Ratings.ComfortLevel != 3 || out.Form.Ratings.PerceivedEmpathy != "High" || out.Form.Item.ID != 1 {
		t.Fatalf("form must be intact after failure, got %+v", out.Form)
	}
	if out.Form.LastError != "Error communicating with Solana" {
		t.Fatalf("unexpected last error %q", out.Form.LastError)
	}

	f.sink.mu.Lock()
	f.sink.err = nil
	f.sink.mu.Unlock()
	out, err = f.uc.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.Form.LabeledCount != 1 || f.sink.got[0].AudioID != 1 {
		t.Fatalf("retry should submit item 1 once, got count %d", out.Form.LabeledCount)
	}
}

func TestSubmitCurrentDoesNotFetchNextItem(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)

	out, err := f.uc.SubmitCurrent(context.Background())
	if err != nil {
		t.Fatalf("submit current: %v", err)
	}
	if out.Receipt.LabelID != 1 || out.Form.LabeledCount != 1 {
		t.Fatalf("unexpected receipt or count: %+v", out)
	}
	if out.Form.Item != nil || out.Form.Exhausted || out.Form.Ratings.ComfortLevel != 0 {
		t.Fatalf("expected an empty, non-exhausted form, got %+v", out.Form)
	}
	f.queue.mu.Lock()
	calls := f.queue.calls
	f.queue.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected only the initial fetch, got %d", calls)
	}
	if len(f.history.entries) != 1 {
		t.Fatalf("submission should still be recorded locally, got %d entries", len(f.history.entries))
	}
}

func TestSubmitInFlightBlocksSecondSubmitAndEdits(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	f.sink.release = make(chan struct{})
	f.sink.entered = make(chan struct{}, 1)
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Submit(context.Background())
		done <- err
	}()
	<-f.sink.entered

	if snap := f.uc.Snapshot(); snap.State != string(domain.StateSubmitting) || !snap.Submitting || snap.CanSubmit {
		t.Fatalf("expected submitting snapshot, got %+v", snap)
	}
	if _, err := f.uc.Submit(context.Background()); !errors.Is(err, apperrors.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if _, err := f.uc.SetRating("clarity", 1); !errors.Is(err, apperrors.ErrSubmissionInFlight) {
		t.Fatalf("expected edits to be rejected in flight, got %v", err)
	}
	close(f.sink.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(f.sink.got) != 1 || f.sink.got[0].Clarity != 4 {
		t.Fatalf("expected exactly one submission with original ratings, got %+v", f.sink.got)
	}
}

func TestResetClearsRatingsOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	form := f.uc.Reset()
	if form.Item == nil || form.State != string(domain.StateEmpty) || len(form.Missing) != 4 {
		t.Fatalf("unexpected form after reset: %+v", form)
	}
}

func TestPlayIsIndependentOfForm(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1))
	if err := f.uc.Play(context.Background()); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation without item, got %v", err)
	}
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	if _, err := f.uc.SetRating("comfort_level", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	before := f.uc.Snapshot()
	if err := f.uc.Play(context.Background()); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(f.player.urls) != 1 || f.player.urls[0] != item(1).SourceURL {
		t.Fatalf("unexpected player calls %v", f.player.urls)
	}
	if diff := cmp.Diff(before, f.uc.Snapshot()); diff != "" {
		t.Fatalf("play changed the form:\n%s", diff)
	}
}

func TestBeginSeedsLifetimeFromHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1))
	_ = f.history.Record(context.Background(), domain.HistoryEntry{IdentityRef: "wallet-1", LabelID: 10, AudioID: 9})
	_ = f.history.Record(context.Background(), domain.HistoryEntry{IdentityRef: "someone-else", LabelID: 11, AudioID: 9})
	form := f.uc.Begin(context.Background(), "wallet-1")
	if form.LabeledCount != 0 || form.LifetimeCount != 1 {
		t.Fatalf("expected labeled 0 lifetime 1, got %d/%d", form.LabeledCount, form.LifetimeCount)
	}
	history, err := f.uc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.Total != 1 || len(history.Entries) != 1 || history.Entries[0].LabelID != 10 {
		t.Fatalf("unexpected history %+v", history)
	}
	f.uc.End()
	if snap := f.uc.Snapshot(); snap.LifetimeCount != 0 || snap.Item != nil {
		t.Fatalf("expected cleared state after End, got %+v", snap)
	}
}

func TestLabelingScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(item(1), item(2))
	if _, err := f.uc.LoadNext(context.Background()); err != nil {
		t.Fatalf("load next: %v", err)
	}
	rateAll(t, f.uc)
	out, err := f.uc.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Form.LabeledCount != 1 {
		t.Fatalf("expected labeled_count=1, got %d", out.Form.LabeledCount)
	}
	want := dto.RatingsOutput{ComfortLevel: 0, Clarity: 0, SpeakingRate: "", PerceivedEmpathy: ""}
	if diff := cmp.Diff(want, out.Form.Ratings); diff != "" {
		t.Fatalf("ratings not reset (-want +got):\n%s", diff)
	}
}
