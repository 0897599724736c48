// services/job_service.go
package services

import (
	"strings"
	"time"

	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{DB: db}
}

// CreateJob creates a job posting. A publish_at in the request schedules it;
// otherwise it starts as a draft.
func (s *JobService) CreateJob(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var req struct {
		Title          string     `json:"title"`
		Description    string     `json:"description"`
		Location       string     `json:"location"`
		EmploymentType string     `json:"employment_type"`
		PublishAt      *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	job := models.Job{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
		Status:         models.JobStatusDraft,
		PublishAt:      req.PublishAt,
	}
	if req.PublishAt != nil {
		job.Status = models.JobStatusScheduled
	}

	// Slug is globally unique; the id fragment keeps same-title postings apart.
	job.Slug = slug.Make(req.Title)
	var count int64
	s.DB.Model(&models.Job{}).Where("slug = ?", job.Slug).Count(&count)
	if count > 0 {
		job.Slug = job.Slug + "-" + job.ID[:8]
	}

	if err := s.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create job"})
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (s *JobService) ListJobs(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var jobs []models.Job
	query := s.DB.Where("organization_id = ?", orgID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc").Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch jobs"})
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// GetPublishedJobBySlug is the public careers-page lookup.
func (s *JobService) GetPublishedJobBySlug(c *fiber.Ctx) error {
	var job models.Job
	if err := s.DB.Where("slug = ? AND status = ?", c.Params("slug"), models.JobStatusPublished).
		First(&job).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

func (s *JobService) getOrgJob(c *fiber.Ctx) (*models.Job, error) {
	orgID := middleware.OrganizationID(c)
	var job models.Job
	err := s.DB.Where("id = ? AND organization_id = ?", c.Params("id"), orgID).First(&job).Error
	return &job, err
}

// UpdateJob applies a partial update; setting status to published clears any
// pending schedule.
func (s *JobService) UpdateJob(c *fiber.Ctx) error {
	job, err := s.getOrgJob(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}

	var req struct {
		Title          *string    `json:"title"`
		Description    *string    `json:"description"`
		Location       *string    `json:"location"`
		EmploymentType *string    `json:"employment_type"`
		Status         *string    `json:"status"`
		PublishAt      *time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.EmploymentType != nil {
		job.EmploymentType = *req.EmploymentType
	}
	if req.PublishAt != nil {
		job.PublishAt = req.PublishAt
		job.Status = models.JobStatusScheduled
	}
	if req.Status != nil {
		switch *req.Status {
		case models.JobStatusDraft, models.JobStatusScheduled, models.JobStatusPublished, models.JobStatusClosed:
			job.Status = *req.Status
			if *req.Status == models.JobStatusPublished {
				job.PublishAt = nil
			}
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
		}
	}

	if err := s.DB.Save(job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update job"})
	}
	return c.JSON(job)
}

func (s *JobService) DeleteJob(c *fiber.Ctx) error {
	job, err := s.getOrgJob(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if err := s.DB.Delete(job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete job"})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// PublishDueJobs flips scheduled postings whose publish time has passed.
// Called every minute by the scheduler.
func (s *JobService) PublishDueJobs() {
	var jobs []models.Job
	now := time.Now()
	if err := s.DB.Where("status = ? AND publish_at <= ?", models.JobStatusScheduled, now).
		Find(&jobs).Error; err != nil {
		logrus.WithError(err).Error("scheduler: failed to load scheduled jobs")
		return
	}

	for _, j := range jobs {
		j.Status = models.JobStatusPublished
		j.PublishAt = nil
		if err := s.DB.Save(&j).Error; err != nil {
			logrus.WithError(err).WithField("job_id", j.ID).Error("scheduler: failed to publish job")
		} else {
			logrus.WithField("job_id", j.ID).Info("auto-published job posting")
		}
	}
}
