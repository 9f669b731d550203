package out

import (
	"context"
	"errors"
	"net/http"

	"carepanion/internal/modules/session/domain"
	sessionout "carepanion/internal/modules/session/port/out"
	apperrors "carepanion/internal/platform/errors"
	"carepanion/internal/platform/httpapi"
)

type loginRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IsNewUser   bool   `json:"is_new_user"`
}

type HTTPAuthenticator struct {
	client *httpapi.Client
}

func NewHTTPAuthenticator(client *httpapi.Client) sessionout.Authenticator {
	return &HTTPAuthenticator{client: client}
}

// Login posts the wallet address. Any backend rejection is an auth error;
// transport failures stay network errors.
func (a *HTTPAuthenticator) Login(ctx context.Context, identityRef string) (domain.LoginResult, error) {
	var resp loginResponse
	err := a.client.Do(ctx, http.MethodPost, "/api/auth/login", false, loginRequest{WalletAddress: identityRef}, &resp)
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && !errors.Is(apiErr.Kind, apperrors.ErrAuth) {
			return domain.LoginResult{}, &apperrors.APIError{Kind: apperrors.ErrAuth, Status: apiErr.Status, Detail: apiErr.Detail}
		}
		return domain.LoginResult{}, err
	}
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return domain.LoginResult{AccessToken: resp.AccessToken, TokenType: tokenType, IsNewUser: resp.IsNewUser}, nil
}
