package out

import (
	"context"

	"carepanion/internal/modules/session/domain"
)

// Authenticator exchanges an identity reference for an access token.
type Authenticator interface {
	Login(ctx context.Context, identityRef string) (domain.LoginResult, error)
}

// CredentialStore persists credentials across runs. Load returns
// apperrors.ErrNoSession when nothing is stored.
type CredentialStore interface {
	Save(ctx context.Context, creds domain.Credentials) error
	Load(ctx context.Context) (domain.Credentials, error)
	Clear(ctx context.Context) error
}
