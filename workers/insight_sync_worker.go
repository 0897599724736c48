package workers

import (
	"context"
	"time"

	"recruit-ads-backend/models"
	"recruit-ads-backend/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InsightSyncWorker periodically re-syncs every active integration so
// campaign metrics stay fresh without anyone pressing the sync button.
type InsightSyncWorker struct {
	DB   *gorm.DB
	Sync *services.SyncService
}

func NewInsightSyncWorker(db *gorm.DB, sync *services.SyncService) *InsightSyncWorker {
	return &InsightSyncWorker{DB: db, Sync: sync}
}

// PollIntegrations runs until the context is cancelled. A failing
// integration is logged and skipped; the next tick retries it.
func (w *InsightSyncWorker) PollIntegrations(ctx context.Context, pollInterval time.Duration) {
	logrus.WithField("interval", pollInterval.String()).Info("starting integration polling")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("integration polling stopped")
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

func (w *InsightSyncWorker) syncAll(ctx context.Context) {
	var integrations []models.Integration
	if err := w.DB.Where("active = ?", true).Find(&integrations).Error; err != nil {
		logrus.WithError(err).Error("failed to load integrations for polling")
		return
	}

	for i := range integrations {
		integration := &integrations[i]
		result, err := w.Sync.SyncIntegration(ctx, integration)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"integration_id": integration.ID,
				"platform":       integration.Platform,
			}).Error("background sync failed")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"integration_id": integration.ID,
			"platform":       integration.Platform,
			"synced":         result.Synced,
			"failed":         len(result.Failed),
		}).Info("background sync finished")
	}
}
