package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
)

func newTaskRequestTestService(t *testing.T) (*TaskRequestService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	svc, err := NewTaskRequestService(db, WithTaskRequestClock(fixedClock))
	require.NoError(t, err)
	return svc, db
}

func seedTask(t *testing.T, db *gorm.DB, title string) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, Description: "original", Priority: models.PriorityNormal,
		Status: models.TaskStatusInProgress, DueDate: "2024-03-04", AssignedToID: "w1"}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestTaskRequestServiceCreateValidates(t *testing.T) {
	svc, _ := newTaskRequestTestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, &models.TaskRequest{TaskTitle: "Bath", Status: models.TaskRequestApproved, ApprovedBy: "me"})
	require.NoError(t, err)
	require.Equal(t, models.TaskRequestPending, request.Status)
	require.Equal(t, models.TaskRequestNew, request.RequestType)
	require.Equal(t, models.PriorityNormal, request.Priority)
	require.Equal(t, "2024-03-04", request.SubmittedDate)
	require.Empty(t, request.ApprovedBy)

	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "x", RequestType: "teleport"})
	require.ErrorIs(t, err, ErrInvalidRequestType)

	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "x", RequestType: "Remove"})
	require.ErrorIs(t, err, ErrOriginalTaskRequired)

	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "x", RequestType: "reschedule", OriginalTaskID: "t1", NewDueDate: "next week"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestTaskRequestServiceApproveNewCreatesTask(t *testing.T) {
	svc, db := newTaskRequestTestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, &models.TaskRequest{TaskTitle: "Bath", Description: "Evening", PatientID: "p1", OrganizationID: "org-1"})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, request.ID, "manager-9", "fine")
	require.NoError(t, err)
	require.Equal(t, models.TaskRequestApproved, approved.Status)
	require.Equal(t, "manager-9", approved.ApprovedBy)
	require.Equal(t, "fine", approved.ApprovalReason)
	require.NotNil(t, approved.ProcessedAt)

	var task models.Task
	require.NoError(t, db.First(&task, "title = ?", "Bath").Error)
	require.Equal(t, models.TaskStatusInProgress, task.Status)
	require.Equal(t, "2024-03-05", task.DueDate)
	require.Equal(t, "manager-9", task.CreatedBy)
	require.Equal(t, "p1", task.PatientID)

	_, err = svc.Approve(ctx, request.ID, "manager-9", "again")
	require.ErrorIs(t, err, ErrTaskRequestProcessed)

	_, err = svc.Reject(ctx, request.ID, "manager-9", "late")
	require.ErrorIs(t, err, ErrTaskRequestProcessed)
}

func TestTaskRequestServiceApproveRecurringCreatesTemplate(t *testing.T) {
	svc, db := newTaskRequestTestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, &models.TaskRequest{
		TaskTitle: "Meds", RequestType: "recurring", Frequency: "Weekly", DayOfWeek: "monday", StartDate: "2024-03-04",
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, "manager-9", "")
	require.NoError(t, err)

	var template models.RecurringTask
	require.NoError(t, db.First(&template, "title = ?", "Meds").Error)
	require.Equal(t, models.FrequencyWeekly, template.Frequency)
	require.Equal(t, 1, template.FrequencyNumber)
	require.True(t, template.Active())
	require.Equal(t, "monday", template.DayOfWeek)
}

func TestTaskRequestServiceApproveChangesExistingTask(t *testing.T) {
	svc, db := newTaskRequestTestService(t)
	ctx := context.Background()

	modifyTarget := seedTask(t, db, "Walk")
	modify, err := svc.Create(ctx, &models.TaskRequest{RequestType: "modify", OriginalTaskID: modifyTarget.ID,
		TaskTitle: "Long walk", Priority: models.PriorityUrgent})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, modify.ID, "m", "")
	require.NoError(t, err)

	var modified models.Task
	require.NoError(t, db.First(&modified, "id = ?", modifyTarget.ID).Error)
	require.Equal(t, "Long walk", modified.Title)
	require.Equal(t, "original", modified.Description)
	require.Equal(t, models.PriorityUrgent, modified.Priority)

	rescheduleTarget := seedTask(t, db, "Lunch")
	reschedule, err := svc.Create(ctx, &models.TaskRequest{RequestType: "reschedule", OriginalTaskID: rescheduleTarget.ID,
		NewDueDate: "2024-03-10", NewAssignedTo: "w2"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, reschedule.ID, "m", "")
	require.NoError(t, err)

	var rescheduled models.Task
	require.NoError(t, db.First(&rescheduled, "id = ?", rescheduleTarget.ID).Error)
	require.Equal(t, "2024-03-10", rescheduled.DueDate)
	require.Equal(t, "w2", rescheduled.AssignedToID)

	removeTarget := seedTask(t, db, "Laundry")
	remove, err := svc.Create(ctx, &models.TaskRequest{RequestType: "remove", OriginalTaskID: removeTarget.ID})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, remove.ID, "m", "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", removeTarget.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskRequestServiceApproveRollsBackWhenTaskMissing(t *testing.T) {
	svc, _ := newTaskRequestTestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, &models.TaskRequest{RequestType: "remove", OriginalTaskID: "gone"})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, "m", "")
	require.ErrorIs(t, err, ErrTaskNotFound)

	stored, err := svc.Get(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskRequestPending, stored.Status)

	_, err = svc.Approve(ctx, "missing", "m", "")
	require.ErrorIs(t, err, ErrTaskRequestNotFound)
}

func TestTaskRequestServiceQueriesAndStats(t *testing.T) {
	svc, _ := newTaskRequestTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &models.TaskRequest{TaskTitle: "a", RequesterID: "fm-1", OrganizationID: "org-1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "b", RequesterID: "fm-1", OrganizationID: "org-2"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "legacy", RequesterID: "fm-2"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.TaskRequest{TaskTitle: "d", RequesterID: "fm-2", OrganizationID: LegacyOrganizationID})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, a.ID, "m", "no")
	require.NoError(t, err)
	require.Equal(t, models.TaskRequestRejected, rejected.Status)
	require.Equal(t, "no", rejected.RejectionReason)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	org1, err := svc.ListPendingByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.Empty(t, org1)

	legacy, err := svc.ListPendingByOrganization(ctx, LegacyOrganizationID)
	require.NoError(t, err)
	require.Len(t, legacy, 2)

	byOrg, err := svc.ListByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, byOrg, 1)

	mine, err := svc.ListByRequester(ctx, "fm-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"total": 4, "pending": 3, "approved": 0, "rejected": 1}, stats)

	orgStats, err := svc.OrganizationStats(ctx, "org-1")
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"total": 1, "pending": 0, "approved": 0, "rejected": 1}, orgStats)

	requesterStats, err := svc.RequesterStats(ctx, "fm-2")
	require.NoError(t, err)
	require.EqualValues(t, 2, requesterStats["pending"])

	updated, err := svc.Update(ctx, a.ID, &models.TaskRequest{Description: "more detail", Month: 4})
	require.NoError(t, err)
	require.Equal(t, "more detail", updated.Description)
	require.Equal(t, 4, updated.Month)
	require.Equal(t, "a", updated.TaskTitle)

	deleted, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = svc.Get(ctx, a.ID)
	require.ErrorIs(t, err, ErrTaskRequestNotFound)
}
