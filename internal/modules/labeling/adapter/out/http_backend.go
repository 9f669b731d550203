package out

import (
	"context"
	"net/http"

	"carepanion/internal/modules/labeling/domain"
	labelingout "carepanion/internal/modules/labeling/port/out"
	"carepanion/internal/platform/httpapi"
)

type audioResponse struct {
	ID              int64  `json:"id"`
	FileURL         string `json:"file_url"`
	DurationSeconds *int   `json:"duration_seconds"`
}

type labelRequest struct {
	AudioID          int64   `json:"audio_id"`
	ComfortLevel     int     `json:"comfort_level"`
	Clarity          int     `json:"clarity"`
	SpeakingRate     string  `json:"speaking_rate"`
	PerceivedEmpathy string  `json:"perceived_empathy"`
	Notes            *string `json:"notes,omitempty"`
}

type labelResponse struct {
	Status               string  `json:"status"`
	LabelID              int64   `json:"label_id"`
	TransactionSignature *string `json:"transaction_signature"`
}

// HTTPBackend serves items from GET /api/audio/next and accepts labels
// on POST /api/labels.
type HTTPBackend struct {
	client *httpapi.Client
}

func NewHTTPBackend(client *httpapi.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

var (
	_ labelingout.ItemSource = (*HTTPBackend)(nil)
	_ labelingout.LabelSink  = (*HTTPBackend)(nil)
)

func (b *HTTPBackend) Next(ctx context.Context) (domain.Item, error) {
	var resp audioResponse
	if err := b.client.Do(ctx, http.MethodGet, "/api/audio/next", true, nil, &resp); err != nil {
		return domain.Item{}, err
	}
	item := domain.Item{ID: resp.ID, SourceURL: b.client.Resolve(resp.FileURL)}
	if resp.DurationSeconds != nil {
		item.DurationSeconds = *resp.DurationSeconds
	}
	return item, nil
}

func (b *HTTPBackend) Submit(ctx context.Context, s domain.Submission) (domain.Receipt, error) {
	req := labelRequest{
		AudioID:          s.AudioID,
		ComfortLevel:     s.ComfortLevel,
		Clarity:          s.Clarity,
		SpeakingRate:     string(s.SpeakingRate),
		PerceivedEmpathy: string(s.PerceivedEmpathy),
		Notes:            s.Notes,
	}
	var resp labelResponse
	if err := b.client.Do(ctx, http.MethodPost, "/api/labels", true, req, &resp); err != nil {
		return domain.Receipt{}, err
	}
	receipt := domain.Receipt{Status: resp.Status, LabelID: resp.LabelID}
	if resp.TransactionSignature != nil {
		receipt.TransactionSignature = *resp.TransactionSignature
	}
	return receipt, nil
}
