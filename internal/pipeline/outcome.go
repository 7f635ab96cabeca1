package pipeline

import (
	"StockInsight/internal/model"

	"github.com/rs/zerolog"
)

func logOutcomes(logger zerolog.Logger, outcomes []model.Outcome) {
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			logger.Warn().Err(o.Err).Str("integration", o.Integration).Msg("optional step failed")
		case o.Skipped:
			logger.Info().Str("integration", o.Integration).Str("reason", o.Reason).Msg("optional step skipped")
		default:
			logger.Info().Str("integration", o.Integration).Msg("optional step done")
		}
	}
}
