package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Minute

// TrashCleanup schedules the permanent deletion of expired trash items. The
// returned scheduler is already running, Stop it on shutdown.
func TrashCleanup(schedule string, t *TrashService) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()

		if _, err := t.PurgeExpiredForAllUsers(ctx); err != nil {
			zap.L().Error("Failed to purge expired trash", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule trash cleanup, %w", err)
	}

	c.Start()
	zap.L().Debug("Trash cleanup attached", zap.String("schedule", schedule))

	return c, nil
}
