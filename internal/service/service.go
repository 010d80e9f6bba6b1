// Package service hosts the monitor orchestrators. Each monitor runs the
// same pipeline: fetch, extract, diff against prior state, notify, persist.
// A failure in one step never prevents persistence of progress made before
// the failure point.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/holiday"
)

const dateLayout = "2006-01-02"

func todayIn(now time.Time) string {
	return now.In(holiday.KST).Format(dateLayout)
}

// notify delivers a message and downgrades channel failures to log entries;
// notification never aborts a run.
func notify(ctx context.Context, n alerting.Notifier, logger zerolog.Logger, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		logger.Error().Err(err).Msg("failed to dispatch notification")
	}
}
