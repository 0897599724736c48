// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// StartSchedulers wires the recurring jobs: a minutely pass over scheduled
// job postings, and the daily spend reconciliation shortly after the ad
// platforms finalize yesterday's metrics.
func StartSchedulers(recon *ReconciliationService, jobs *JobService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish due job postings
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(jobs.PublishDueJobs),
	)

	// Daily at 03:00 UTC: reconcile wallet spend
	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			logrus.Info("starting scheduled spend reconciliation")
			results := recon.Run(context.Background(), time.Now().UTC())
			logrus.WithField("wallets", len(results)).Info("scheduled spend reconciliation finished")
		}),
	)
}
