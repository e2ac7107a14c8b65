// internal/service/otp/janitor.go
package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor periodically removes expired codes.
type Janitor struct {
	cron     *cron.Cron
	purger   Purger
	schedule string
	logger   *zap.Logger
}

func NewJanitor(purger Purger, schedule string, logger *zap.Logger) *Janitor {
	return &Janitor{
		cron:     cron.New(),
		purger:   purger,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the purge job and starts the scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule otp purge %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.logger.Info("otp janitor started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("otp purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("purged expired otp codes", zap.Int64("count", n))
	}
}
