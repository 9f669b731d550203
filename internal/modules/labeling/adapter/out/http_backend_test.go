package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	labelingout "carepanion/internal/modules/labeling/adapter/out"
	"carepanion/internal/modules/labeling/domain"
	apperrors "carepanion/internal/platform/errors"
	"carepanion/internal/platform/httpapi"
)

func newBackend(url string) *labelingout.HTTPBackend {
	tokens := httpapi.TokenFunc(func(context.Context) (string, error) { return "tok", nil })
	return labelingout.NewHTTPBackend(httpapi.New(url, time.Second, tokens, nil, nil))
}

func TestHTTPBackendNextResolvesRelativeURL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/audio/next" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"id":4,"file_url":"/media/sample4.mp3","duration_seconds":null}`))
	}))
	defer srv.Close()

	item, err := newBackend(srv.URL).Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if item.ID != 4 || item.SourceURL != srv.URL+"/media/sample4.mp3" || item.DurationSeconds != 0 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestHTTPBackendNextNotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No more audio files available to label"}`))
	}))
	defer srv.Close()

	if _, err := newBackend(srv.URL).Next(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPBackendSubmit(t *testing.T) {
	t.Parallel()
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/labels" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"status":"success","label_id":12,"transaction_signature":"5sig"}`))
	}))
	defer srv.Close()

	receipt, err := newBackend(srv.URL).Submit(context.Background(), domain.Submission{
		AudioID: 4, ComfortLevel: 3, Clarity: 4, SpeakingRate: domain.RateMedium, PerceivedEmpathy: domain.EmpathyHigh,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.LabelID != 12 || receipt.TransactionSignature != "5sig" || receipt.Status != "success" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if body["audio_id"] != float64(4) || body["speaking_rate"] != "Medium" || body["perceived_empathy"] != "High" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["notes"]; ok {
		t.Fatalf("notes must be omitted when empty")
	}
}

func TestHTTPBackendSubmitDuplicateIsValidationError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"You have already labeled this audio file"}`))
	}))
	defer srv.Close()

	_, err := newBackend(srv.URL).Submit(context.Background(), domain.Submission{AudioID: 1})
	if !errors.Is(err, apperrors.ErrValidation) || err.Error() != "You have already labeled this audio file" {
		t.Fatalf("unexpected error %v", err)
	}
}
