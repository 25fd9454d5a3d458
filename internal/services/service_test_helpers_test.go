package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/database/testutil"
	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/mail"
)

var testNow = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedWorker(t *testing.T, db *gorm.DB, name, organizationID string) *models.Worker {
	t.Helper()
	worker := &models.Worker{
		Name:           name,
		Email:          name + "@example.com",
		OrganizationID: organizationID,
		Status:         models.WorkerStatusActive,
	}
	require.NoError(t, db.Create(worker).Error)
	return worker
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, mail.Message) error {
	return mail.ErrSMTPDisabled
}
