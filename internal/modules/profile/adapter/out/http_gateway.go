package out

import (
	"context"
	"net/http"

	"carepanion/internal/modules/profile/domain"
	profileout "carepanion/internal/modules/profile/port/out"
	"carepanion/internal/platform/httpapi"
)

type profileBody struct {
	WalletAddress  string  `json:"wallet_address,omitempty"`
	Gender         *string `json:"gender"`
	AgeBracket     *string `json:"age_bracket"`
	HearingAbility *string `json:"hearing_ability"`
	Nationality    *string `json:"nationality"`
}

type setupRequest struct {
	Gender         string `json:"gender"`
	AgeBracket     string `json:"age_bracket"`
	HearingAbility string `json:"hearing_ability"`
	Nationality    string `json:"nationality"`
}

type setupResponse struct {
	Status string      `json:"status"`
	User   profileBody `json:"user"`
}

type HTTPGateway struct {
	client *httpapi.Client
}

func NewHTTPGateway(client *httpapi.Client) profileout.Gateway {
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) Get(ctx context.Context) (domain.Record, error) {
	var body profileBody
	if err := g.client.Do(ctx, http.MethodGet, "/api/profile/me", true, nil, &body); err != nil {
		return domain.Record{}, err
	}
	return body.record(), nil
}

func (g *HTTPGateway) Setup(ctx context.Context, profile domain.Profile) (domain.Record, error) {
	req := setupRequest{
		Gender:         profile.Gender,
		AgeBracket:     profile.AgeBracket,
		HearingAbility: profile.HearingAbility,
		Nationality:    profile.Nationality,
	}
	var resp setupResponse
	if err := g.client.Do(ctx, http.MethodPost, "/api/profile/setup", true, req, &resp); err != nil {
		return domain.Record{}, err
	}
	return resp.User.record(), nil
}

func (b profileBody) record() domain.Record {
	return domain.Record{
		WalletAddress: b.WalletAddress,
		Profile: domain.Profile{
			Gender:         deref(b.Gender),
			AgeBracket:     deref(b.AgeBracket),
			HearingAbility: deref(b.HearingAbility),
			Nationality:    deref(b.Nationality),
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
