package pipeline

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/Gravitalia/socialbook/helpers"
)

type pendingCounter interface {
	Pending() (uint64, error)
}

// ScheduleStats records the pending message count on a cron schedule
// such as "@every 1m". Stop the returned cron on shutdown.
func ScheduleStats(spec string, q pendingCounter, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { recordPending(q, logger) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func recordPending(q pendingCounter, logger *slog.Logger) {
	n, err := q.Pending()
	if err != nil {
		logger.Warn("cannot read stream statistics", "error", err)
		return
	}
	helpers.SetPendingMessages(n)
	logger.Debug("stream statistics", "pending", n)
}
