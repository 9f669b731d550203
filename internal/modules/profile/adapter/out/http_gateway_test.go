package out_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	profileout "carepanion/internal/modules/profile/adapter/out"
	"carepanion/internal/modules/profile/domain"
	"carepanion/internal/platform/httpapi"
)

func newClient(url string) *httpapi.Client {
	return httpapi.New(url, time.Second, httpapi.TokenFunc(func(context.Context) (string, error) { return "tok", nil }), nil, nil)
}

func TestHTTPGatewayGetHandlesNullFields(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/profile/me" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"wallet_address":"wallet-1","gender":"Female","age_bracket":null,"hearing_ability":null,"nationality":null}`))
	}))
	defer srv.Close()

	record, err := profileout.NewHTTPGateway(newClient(srv.URL)).Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.WalletAddress != "wallet-1" || record.Profile.Gender != "Female" || record.Profile.AgeBracket != "" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.Profile.Complete() {
		t.Fatalf("profile with null fields must be incomplete")
	}
}

func TestHTTPGatewaySetupPostsProfile(t *testing.T) {
	t.Parallel()
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/profile/setup" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"success","user":{"wallet_address":"wallet-1","gender":"Female","age_bracket":"70-79","hearing_ability":"Normal","nationality":"TH"}}`))
	}))
	defer srv.Close()

	profile := domain.Profile{Gender: "Female", AgeBracket: "70-79", HearingAbility: "Normal", Nationality: "TH"}
	record, err := profileout.NewHTTPGateway(newClient(srv.URL)).Setup(context.Background(), profile)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got["gender"] != "Female" || got["age_bracket"] != "70-79" || got["hearing_ability"] != "Normal" || got["nationality"] != "TH" {
		t.Fatalf("unexpected request body %v", got)
	}
	if record.Profile != profile {
		t.Fatalf("unexpected record %+v", record)
	}
}
