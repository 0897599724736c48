// services/job_service_test.go
package services

import (
	"testing"
	"time"

	"recruit-ads-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDueJobs(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(db)
	orgID := uuid.NewString()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due := models.Job{
		ID: uuid.NewString(), OrganizationID: orgID, Title: "Backend Engineer",
		Slug: "backend-engineer", Status: models.JobStatusScheduled, PublishAt: &past,
	}
	notYet := models.Job{
		ID: uuid.NewString(), OrganizationID: orgID, Title: "Designer",
		Slug: "designer", Status: models.JobStatusScheduled, PublishAt: &future,
	}
	draft := models.Job{
		ID: uuid.NewString(), OrganizationID: orgID, Title: "Recruiter",
		Slug: "recruiter", Status: models.JobStatusDraft,
	}
	require.NoError(t, db.Create(&due).Error)
	require.NoError(t, db.Create(&notYet).Error)
	require.NoError(t, db.Create(&draft).Error)

	svc.PublishDueJobs()

	var got models.Job
	require.NoError(t, db.First(&got, "id = ?", due.ID).Error)
	assert.Equal(t, models.JobStatusPublished, got.Status)
	assert.Nil(t, got.PublishAt)

	got = models.Job{}
	require.NoError(t, db.First(&got, "id = ?", notYet.ID).Error)
	assert.Equal(t, models.JobStatusScheduled, got.Status)

	got = models.Job{}
	require.NoError(t, db.First(&got, "id = ?", draft.ID).Error)
	assert.Equal(t, models.JobStatusDraft, got.Status)
}
