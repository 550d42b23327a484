package pipeline

import (
	"context"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// FanoutLoader runs loaders in order, stopping at the first failure. The
// store loader comes before the sink publisher so a published assessment is
// always backed by a persisted row; loaders must be idempotent since an
// early success repeats when a later loader fails and the message retries.
type FanoutLoader []Loader

func (f FanoutLoader) Load(ctx context.Context, obs domain.Observation, a domain.RiskAssessment) error {
	for _, l := range f {
		if err := l.Load(ctx, obs, a); err != nil {
			return err
		}
	}
	return nil
}
