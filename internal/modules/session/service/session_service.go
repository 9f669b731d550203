package service

import (
	"context"
	"errors"
	"fmt"

	"carepanion/internal/modules/session/domain"
	sessionout "carepanion/internal/modules/session/port/out"
	"carepanion/internal/platform/clock"
	apperrors "carepanion/internal/platform/errors"

	"go.uber.org/zap"
)

type SessionService struct {
	clock       clock.Clock
	auth        sessionout.Authenticator
	creds       sessionout.CredentialStore
	minIdentity int
	logger      *zap.Logger
}

func NewSessionService(clock clock.Clock, auth sessionout.Authenticator, creds sessionout.CredentialStore, minIdentity int, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{clock: clock, auth: auth, creds: creds, minIdentity: minIdentity, logger: logger}
}

// Authenticate validates the identity, logs in and persists the credentials.
// Invalid input returns before any network call.
func (s *SessionService) Authenticate(ctx context.Context, input string) (domain.Session, error) {
	identity, err := domain.ValidateIdentity(input, s.minIdentity)
	if err != nil {
		return domain.Session{}, err
	}
	result, err := s.auth.Login(ctx, identity)
	if err != nil {
		s.logger.Warn("login failed", zap.String("identity", domain.ShortIdentity(identity)), zap.Error(err))
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	if result.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("login: %w: empty access token", apperrors.ErrAuth)
	}
	creds := domain.Credentials{
		SchemaVersion: domain.SchemaVersion,
		AccessToken:   result.AccessToken,
		TokenType:     result.TokenType,
		IdentityRef:   identity,
		SavedAt:       s.clock.Now(),
	}
	if err := s.creds.Save(ctx, creds); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("logged in", zap.String("identity", domain.ShortIdentity(identity)), zap.Bool("new_user", result.IsNewUser))
	session := creds.Session()
	session.IsNewUser = result.IsNewUser
	return session, nil
}

// Stored returns the persisted session, or apperrors.ErrNoSession.
func (s *SessionService) Stored(ctx context.Context) (domain.Session, error) {
	creds, err := s.creds.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if creds.AccessToken == "" || creds.IdentityRef == "" {
		return domain.Session{}, apperrors.ErrNoSession
	}
	return creds.Session(), nil
}

func (s *SessionService) Forget(ctx context.Context) error {
	if err := s.creds.Clear(ctx); err != nil && !errors.Is(err, apperrors.ErrNoSession) {
		return err
	}
	return nil
}
