package out

import (
	"context"

	"carepanion/internal/modules/profile/domain"
)

type Gateway interface {
	Get(ctx context.Context) (domain.Record, error)
	Setup(ctx context.Context, profile domain.Profile) (domain.Record, error)
}
