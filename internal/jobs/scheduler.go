package job

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// NewScheduler runs run every interval in loc. A tick that fires while the
// previous run is still going is skipped.
func NewScheduler(loc *time.Location, interval time.Duration, run func()) (*cron.Cron, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc("@every "+interval.String(), run); err != nil {
		return nil, err
	}
	return c, nil
}
