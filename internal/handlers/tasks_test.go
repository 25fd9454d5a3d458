package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
)

type fakeTaskStore struct {
	TaskStore

	err      error
	created  *models.Task
	deleted  bool
	status   string
	assigned [2]string
}

func (f *fakeTaskStore) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	f.created = task
	if f.err != nil {
		return nil, f.err
	}
	task.ID = "t1"
	return task, nil
}

func (f *fakeTaskStore) Delete(context.Context, string) (bool, error) {
	return f.deleted, f.err
}

func (f *fakeTaskStore) ListByStatus(_ context.Context, status string) ([]models.Task, error) {
	f.status = status
	return []models.Task{{Title: "a", Status: status}}, f.err
}

func (f *fakeTaskStore) Assign(_ context.Context, id, workerID, workerName string) (*models.Task, error) {
	f.assigned = [2]string{workerID, workerName}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{AssignedToID: workerID, AssignedTo: workerName}, nil
}

func (f *fakeTaskStore) Approve(context.Context, string, string) (*models.Task, error) {
	return nil, f.err
}

type fakeRecurringStore struct {
	RecurringTaskStore

	err       error
	template  *models.RecurringTask
	created   *models.RecurringTask
	deleted   bool
	generated string
}

func (f *fakeRecurringStore) Create(_ context.Context, template *models.RecurringTask) (*models.RecurringTask, error) {
	f.created = template
	return template, f.err
}

func (f *fakeRecurringStore) Delete(context.Context, string) (bool, error) {
	return f.deleted, f.err
}

func (f *fakeRecurringStore) Toggle(context.Context, string) (*models.RecurringTask, error) {
	return f.template, f.err
}

func (f *fakeRecurringStore) Generate(_ context.Context, date string) ([]models.Task, error) {
	f.generated = date
	return []models.Task{{Title: "generated"}}, f.err
}

func TestTaskHandlerCreateForPatient(t *testing.T) {
	store := &fakeTaskStore{}
	handler := NewTaskHandler(store, &fakeRecurringStore{})

	env := serve(t, http.MethodPost, "/create-for-patient", handler.CreateForPatient, "/create-for-patient",
		map[string]string{"title": "Lunch", "assignedTo": "Alice"})
	requireFailure(t, env, "400", "assignedToId is required when assigning a worker. Do not use name-only assignment.")
	require.Nil(t, store.created)

	env = serve(t, http.MethodPost, "/create-for-patient", handler.CreateForPatient, "/create-for-patient",
		map[string]string{"title": "Lunch", "assignedTo": "Alice", "assignedToId": " w1 "})
	require.Equal(t, "Task created successfully for patient!", env.Msg)
	require.Equal(t, "w1", store.created.AssignedToID)
	require.Equal(t, models.TaskStatusInProgress, store.created.Status)
	require.Equal(t, "default-patient-001", store.created.PatientID)
	require.Equal(t, "manager-001", store.created.CreatedBy)
	require.Equal(t, "org-001", store.created.OrganizationID)

	serve(t, http.MethodPost, "/create-for-patient", handler.CreateForPatient, "/create-for-patient",
		map[string]string{"title": "Unassigned"},
		withHeader("X-Patient-Id", "p9"), withHeader("X-Organization-Id", "org-9"))
	require.Equal(t, "p9", store.created.PatientID)
	require.Equal(t, "org-9", store.created.OrganizationID)
	require.Empty(t, store.created.AssignedToID)
}

func TestTaskHandlerDeleteAndAssign(t *testing.T) {
	store := &fakeTaskStore{}
	handler := NewTaskHandler(store, &fakeRecurringStore{})

	env := serve(t, http.MethodDelete, "/tasks/:id", handler.Delete, "/tasks/t1", nil)
	requireFailure(t, env, "404", "Task not found!")

	store.deleted = true
	env = serve(t, http.MethodDelete, "/tasks/:id", handler.Delete, "/tasks/t1", nil)
	require.Equal(t, "Task deleted successfully!", env.Msg)

	env = serve(t, http.MethodPost, "/tasks/:id/assign", handler.Assign, "/tasks/t1/assign", map[string]string{"workerName": "Bob"})
	requireFailure(t, env, "400", "Worker ID is required!")

	env = serve(t, http.MethodPost, "/tasks/:id/assign", handler.Assign, "/tasks/t1/assign",
		map[string]string{"workerId": "w2", "workerName": "Bob"})
	require.Equal(t, "Task assigned successfully!", env.Msg)
	require.Equal(t, [2]string{"w2", "Bob"}, store.assigned)

	missing := &fakeTaskStore{err: services.ErrTaskNotFound}
	env = serve(t, http.MethodPost, "/tasks/:id/approve", NewTaskHandler(missing, nil).Approve, "/tasks/t9/approve", nil)
	requireFailure(t, env, "404", "Task not found!")
}

func TestTaskHandlerStatusListings(t *testing.T) {
	store := &fakeTaskStore{}
	handler := NewTaskHandler(store, &fakeRecurringStore{})

	cases := []struct {
		name   string
		call   func() envelope
		status string
		msg    string
	}{
		{"pending approval", func() envelope {
			return serve(t, http.MethodGet, "/p", handler.ListPendingApproval, "/p", nil)
		}, models.TaskStatusWorkerCompleted, "Pending approval tasks retrieved successfully!"},
		{"completed", func() envelope {
			return serve(t, http.MethodGet, "/c", handler.ListCompleted, "/c", nil)
		}, models.TaskStatusCompleted, "Completed tasks retrieved successfully!"},
		{"in progress", func() envelope {
			return serve(t, http.MethodGet, "/i", handler.ListInProgress, "/i", nil)
		}, models.TaskStatusInProgress, "In-progress tasks retrieved successfully!"},
		{"rejected", func() envelope {
			return serve(t, http.MethodGet, "/r", handler.ListRejected, "/r", nil)
		}, models.TaskStatusRejected, "Rejected tasks retrieved successfully!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := tc.call()
			require.Equal(t, "200", env.Code)
			require.Equal(t, tc.msg, env.Msg)
			require.Equal(t, tc.status, store.status)
			require.Len(t, decodeData[[]models.Task](t, env), 1)
		})
	}

	failing := NewTaskHandler(&fakeTaskStore{err: errDB}, nil)
	env := serve(t, http.MethodGet, "/r", failing.ListRejected, "/r", nil)
	requireFailure(t, env, "500", "Failed to retrieve rejected tasks: DB Error")
}

func TestTaskHandlerRecurringTemplates(t *testing.T) {
	off := false
	recurring := &fakeRecurringStore{template: &models.RecurringTask{Title: "Bins", IsActive: &off}}
	handler := NewTaskHandler(&fakeTaskStore{}, recurring)

	env := serve(t, http.MethodPost, "/recurring/:id/toggle", handler.ToggleRecurring, "/recurring/r1/toggle", nil)
	require.Equal(t, "Recurring task template deactivated successfully!", env.Msg)

	recurring.template = &models.RecurringTask{Title: "Bins"}
	env = serve(t, http.MethodPost, "/recurring/:id/toggle", handler.ToggleRecurring, "/recurring/r1/toggle", nil)
	require.Equal(t, "Recurring task template activated successfully!", env.Msg)

	env = serve(t, http.MethodDelete, "/recurring/:id", handler.DeleteRecurring, "/recurring/r1", nil)
	requireFailure(t, env, "404", "Recurring task template not found!")

	recurring.deleted = true
	env = serve(t, http.MethodDelete, "/recurring/:id", handler.DeleteRecurring, "/recurring/r1", nil)
	require.Equal(t, "Recurring task template deleted successfully!", env.Msg)
	require.Equal(t, "Recurring task template deleted successfully!", decodeData[string](t, env))

	env = serve(t, http.MethodPost, "/recurring", handler.CreateRecurring, "/recurring",
		map[string]string{"title": "Laundry", "frequency": "weekly", "createdBy": "body-user", "organizationId": "org-body"},
		withHeader("X-User-Id", "header-user"))
	require.Equal(t, "Recurring task template created successfully!", env.Msg)
	require.Equal(t, "header-user", recurring.created.CreatedBy)
	require.Equal(t, "org-body", recurring.created.OrganizationID)

	env = serve(t, http.MethodPost, "/recurring/generate", handler.GenerateRecurring, "/recurring/generate", nil)
	require.Equal(t, "Tasks generated from recurring templates successfully!", env.Msg)
	require.Empty(t, recurring.generated)

	serve(t, http.MethodPost, "/recurring/generate", handler.GenerateRecurring, "/recurring/generate?date=2024-03-08", nil)
	require.Equal(t, "2024-03-08", recurring.generated)

	env = serve(t, http.MethodPost, "/recurring/generate", handler.GenerateRecurring, "/recurring/generate?date=08-03-2024", nil)
	requireFailure(t, env, "400", "Invalid date format! Use YYYY-MM-DD")

	missing := &fakeRecurringStore{err: services.ErrRecurringTaskNotFound}
	env = serve(t, http.MethodPost, "/recurring/:id/toggle", NewTaskHandler(nil, missing).ToggleRecurring, "/recurring/r9/toggle", nil)
	requireFailure(t, env, "404", "Recurring task template not found!")
}
