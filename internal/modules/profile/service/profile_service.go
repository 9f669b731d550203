package service

import (
	"context"

	"carepanion/internal/modules/profile/domain"
	profileout "carepanion/internal/modules/profile/port/out"

	"go.uber.org/zap"
)

type ProfileService struct {
	gateway profileout.Gateway
	logger  *zap.Logger
}

func NewProfileService(gateway profileout.Gateway, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{gateway: gateway, logger: logger}
}

func (s *ProfileService) Setup(ctx context.Context, profile domain.Profile) (domain.Record, error) {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return domain.Record{}, err
	}
	record, err := s.gateway.Setup(ctx, profile)
	if err != nil {
		s.logger.Warn("profile setup failed", zap.Error(err))
		return domain.Record{}, err
	}
	s.logger.Info("profile saved", zap.String("age_bracket", profile.AgeBracket), zap.String("nationality", profile.Nationality))
	return record, nil
}

func (s *ProfileService) Get(ctx context.Context) (domain.Record, error) {
	return s.gateway.Get(ctx)
}
