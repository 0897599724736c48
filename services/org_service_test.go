// services/org_service_test.go
package services

import (
	"testing"
	"time"

	"recruit-ads-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func addMembership(t *testing.T, db *gorm.DB, userID, role string, createdAt time.Time) models.Member {
	t.Helper()
	m := models.Member{
		ID:             uuid.NewString(),
		OrganizationID: uuid.NewString(),
		UserID:         userID,
		Role:           role,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func TestResolveMembership_OwnerBeatsAdminAndMember(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.NewString()
	base := time.Now().Add(-time.Hour)

	addMembership(t, db, userID, models.RoleMember, base)
	addMembership(t, db, userID, models.RoleAdmin, base.Add(time.Minute))
	owner := addMembership(t, db, userID, models.RoleOwner, base.Add(2*time.Minute))

	got, err := models.ResolveMembership(db, userID)
	require.NoError(t, err)
	assert.Equal(t, owner.OrganizationID, got.OrganizationID)
	assert.Equal(t, models.RoleOwner, got.Role)
}

func TestResolveMembership_TieBrokenByOldestRow(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.NewString()
	base := time.Now().Add(-time.Hour)

	oldest := addMembership(t, db, userID, models.RoleAdmin, base)
	addMembership(t, db, userID, models.RoleAdmin, base.Add(time.Minute))

	// Deterministic: same answer on every call.
	for i := 0; i < 5; i++ {
		got, err := models.ResolveMembership(db, userID)
		require.NoError(t, err)
		assert.Equal(t, oldest.OrganizationID, got.OrganizationID)
	}
}

func TestResolveMembership_NoMemberships(t *testing.T) {
	db := newTestDB(t)
	_, err := models.ResolveMembership(db, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
