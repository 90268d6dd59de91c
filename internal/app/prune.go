package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/database"
)

// StartPruner schedules deletion of usage rows older than the configured
// retention. Callers stop the returned cron on shutdown.
func (a *App) StartPruner() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(a.Config.Usage.PruneSchedule, a.pruneUsage)
	if err != nil {
		return nil, fmt.Errorf("usage prune schedule %q: %w", a.Config.Usage.PruneSchedule, err)
	}
	c.Start()
	appLog.Info("usage pruner started",
		"schedule", a.Config.Usage.PruneSchedule,
		"retention_days", a.Config.Usage.RetentionDays,
	)
	return c, nil
}

func (a *App) pruneUsage() {
	cutoff := time.Now().Add(-a.Config.Retention())
	if _, err := database.PruneUsage(a.DB, cutoff); err != nil {
		appLog.Error("usage prune failed", err)
	}
}
