package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	iauth "github.com/careapp/carecoord/internal/auth"
	"github.com/careapp/carecoord/internal/handlers/testutil"
	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/notifications"
)

type userPayload struct {
	ID                string `json:"id"`
	Uname             string `json:"uname"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	OrganizationID    string `json:"organizationId"`
	HasUsedInviteCode bool   `json:"hasUsedInviteCode"`
	Token             string `json:"token"`
}

func register(t *testing.T, env *testutil.Env, uname, role string) userPayload {
	t.Helper()
	resp := env.Call(http.MethodPost, "/api/auth/register", map[string]string{
		"firstName": strings.ToUpper(uname[:1]) + uname[1:],
		"lastName":  "Tester",
		"uname":     uname,
		"email":     uname + "@example.com",
		"password":  "Secret123!",
		"role":      role,
	}, nil)
	require.True(t, resp.OK(), resp.Msg)
	require.Equal(t, "Registration successful!", resp.Msg)

	var user userPayload
	testutil.DecodeInto(t, resp.Data, &user)
	require.NotEmpty(t, user.ID)
	return user
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	env := testutil.NewEnv(t)
	registered := register(t, env, "mary", "manager")
	require.Equal(t, models.RoleManager, registered.Role)

	again := env.Call(http.MethodPost, "/api/auth/register", map[string]string{
		"uname": "other", "email": "mary@example.com", "password": "Secret123!",
	}, nil)
	require.Equal(t, "409", again.Code)
	require.Equal(t, "Email already exists!", again.Msg)

	bad := env.Call(http.MethodPost, "/api/auth/login", map[string]string{"uname": "mary", "password": "nope"}, nil)
	require.Equal(t, "401", bad.Code)
	require.Equal(t, "Invalid username or password!", bad.Msg)

	login := env.Call(http.MethodPost, "/api/auth/login", map[string]string{"uname": "mary", "password": "Secret123!"}, nil)
	require.True(t, login.OK(), login.Msg)
	require.Equal(t, "Login successful!", login.Msg)
	var session userPayload
	testutil.DecodeInto(t, login.Data, &session)
	require.Equal(t, registered.ID, session.ID)
	require.NotEmpty(t, session.Token)

	byEmail := env.Call(http.MethodPost, "/api/auth/login-email", map[string]string{"email": "mary@example.com", "password": "Secret123!"}, nil)
	require.True(t, byEmail.OK(), byEmail.Msg)

	anonymous := env.Call(http.MethodGet, "/api/auth/me", nil, nil)
	require.Equal(t, "401", anonymous.Code)

	me := env.Call(http.MethodGet, "/api/auth/me", nil, testutil.Bearer(session.Token))
	require.True(t, me.OK(), me.Msg)
	require.Equal(t, "User retrieved successfully!", me.Msg)
	var current userPayload
	testutil.DecodeInto(t, me.Data, &current)
	require.Equal(t, "mary", current.Uname)
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	env := testutil.NewEnv(t)
	register(t, env, "mary", "manager")

	unknown := env.Call(http.MethodPost, "/api/auth/forgot-password", map[string]string{"identifier": "ghost"}, nil)
	require.True(t, unknown.OK())
	require.Equal(t, "Password reset instructions sent!", unknown.Msg)
	require.Empty(t, env.Mailer.Sent())

	sent := env.Call(http.MethodPost, "/api/auth/forgot-password", map[string]string{"identifier": "mary@example.com"}, nil)
	require.True(t, sent.OK())
	messages := env.Mailer.Sent()
	require.Len(t, messages, 1)

	body := messages[0].Body
	marker := "reset token is: "
	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0, body)
	token := strings.Fields(body[idx+len(marker):])[0]

	invalid := env.Call(http.MethodPost, "/api/auth/reset-password", map[string]string{"token": "bogus", "newPassword": "Reset123!"}, nil)
	require.Equal(t, "400", invalid.Code)
	require.Equal(t, "Invalid or expired reset token!", invalid.Msg)

	reset := env.Call(http.MethodPost, "/api/auth/reset-password", map[string]string{"token": token, "newPassword": "Reset123!"}, nil)
	require.True(t, reset.OK(), reset.Msg)

	login := env.Call(http.MethodPost, "/api/auth/login", map[string]string{"uname": "mary", "password": "Reset123!"}, nil)
	require.True(t, login.OK(), login.Msg)

	changed := env.Call(http.MethodPost, "/api/auth/change-password", map[string]string{
		"identifier": "mary", "oldPassword": "Reset123!", "newPassword": "Changed123!",
	}, nil)
	require.True(t, changed.OK(), changed.Msg)
	require.Equal(t, "Password updated successfully!", changed.Msg)
}

func TestInviteFlow_WorkerOnboarding(t *testing.T) {
	env := testutil.NewEnv(t)
	manager := register(t, env, "mary", "manager")
	worker := register(t, env, "walter", "worker")

	missing := env.Call(http.MethodPost, "/api/invite/generate", map[string]string{"createdBy": manager.ID}, nil)
	require.Equal(t, "400", missing.Code)
	require.Equal(t, "Missing required fields!", missing.Msg)

	generated := env.Call(http.MethodPost, "/api/invite/generate", map[string]string{
		"createdBy":      manager.ID,
		"createdByType":  models.CreatorTypeManager,
		"targetType":     models.TargetTypeWorker,
		"patientId":      "patient-1",
		"organizationId": "org-9",
	}, nil)
	require.True(t, generated.OK(), generated.Msg)
	var code string
	testutil.DecodeInto(t, generated.Data, &code)
	require.Len(t, code, 8)

	submitted := env.Call(http.MethodPost, "/api/auth/submit-invite-code", map[string]string{"inviteCode": code}, nil)
	require.True(t, submitted.OK(), submitted.Msg)

	status := env.Call(http.MethodGet, "/api/auth/invite-status?userId="+worker.ID, nil, nil)
	require.JSONEq(t, `{"valid":false,"reason":"missing"}`, string(status.Data))

	used := env.Call(http.MethodPost, "/api/invite/use", map[string]string{"code": code, "usedBy": worker.ID}, nil)
	require.True(t, used.OK(), used.Msg)
	require.Equal(t, "Invite code used successfully!", used.Msg)

	status = env.Call(http.MethodGet, "/api/auth/invite-status?userId="+worker.ID, nil, nil)
	require.JSONEq(t, `{"valid":true,"reason":"already_used"}`, string(status.Data))

	workers := env.Call(http.MethodGet, "/api/workers/organization/org-9", nil, nil)
	require.True(t, workers.OK(), workers.Msg)
	var listed []models.Worker
	testutil.DecodeInto(t, workers.Data, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, worker.ID, listed[0].ID)
	require.Equal(t, manager.ID, listed[0].ManagerID)

	codes := env.Call(http.MethodGet, "/api/invite/my-codes?creatorId="+manager.ID, nil, nil)
	require.True(t, codes.OK(), codes.Msg)
	var mine []models.InviteCode
	testutil.DecodeInto(t, codes.Data, &mine)
	require.Len(t, mine, 1)

	revoked := env.Call(http.MethodDelete, "/api/invite/"+code, nil, nil)
	require.True(t, revoked.OK(), revoked.Msg)
	require.Equal(t, "Invite code revoked successfully!", revoked.Msg)

	again := env.Call(http.MethodDelete, "/api/invite/"+code, nil, nil)
	require.Equal(t, "400", again.Code)
}

func TestScheduleAndTaskFlow(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.Call(http.MethodPost, "/api/schedules", map[string]string{
		"workerId":       "w1",
		"workerName":     "Alice",
		"scheduleDate":   "2024-03-04",
		"shiftType":      models.ShiftMorning,
		"organizationId": "org-1",
	}, nil)
	require.True(t, created.OK(), created.Msg)
	var schedule models.Schedule
	testutil.DecodeInto(t, created.Data, &schedule)
	require.Equal(t, "08:00", schedule.ShiftStartTime)

	conflict := env.Call(http.MethodGet, "/api/schedules/validate?workerId=w1&date=2024-03-04&shiftType=morning", nil, nil)
	require.JSONEq(t, "false", string(conflict.Data))
	require.Equal(t, "Conflict found. Worker already has a schedule for this shift.", conflict.Msg)

	badDate := env.Call(http.MethodGet, "/api/schedules/date/04-03-2024", nil, nil)
	require.Equal(t, "400", badDate.Code)
	require.Equal(t, "Invalid date format! Use YYYY-MM-DD", badDate.Msg)

	byDate := env.Call(http.MethodGet, "/api/schedules/date/2024-03-04", nil, nil)
	var schedules []models.Schedule
	testutil.DecodeInto(t, byDate.Data, &schedules)
	require.Len(t, schedules, 1)

	fetched := env.Call(http.MethodGet, "/api/schedules/"+schedule.ID, nil, nil)
	require.True(t, fetched.OK(), fetched.Msg)

	missing := env.Call(http.MethodGet, "/api/schedules/does-not-exist", nil, nil)
	require.Equal(t, "404", missing.Code)
	require.Equal(t, "Schedule not found!", missing.Msg)

	task := env.Call(http.MethodPost, "/api/tasks", map[string]string{
		"title":        "Medication",
		"assignedToId": "w1",
		"assignedTo":   "Alice",
	}, nil)
	require.True(t, task.OK(), task.Msg)
	var created1 models.Task
	testutil.DecodeInto(t, task.Data, &created1)
	require.Equal(t, models.TaskStatusInProgress, created1.Status)

	done := env.Call(http.MethodPost, "/api/tasks/"+created1.ID+"/worker-complete", nil, nil)
	require.Equal(t, "Task marked as completed by worker!", done.Msg)

	pending := env.Call(http.MethodGet, "/api/tasks/pending-approval", nil, nil)
	var awaiting []models.Task
	testutil.DecodeInto(t, pending.Data, &awaiting)
	require.Len(t, awaiting, 1)

	approved := env.Call(http.MethodPost, "/api/tasks/"+created1.ID+"/approve", map[string]string{"approvalReason": "ok"}, nil)
	require.Equal(t, "Task completion approved!", approved.Msg)

	template := env.Call(http.MethodPost, "/api/tasks/recurring", map[string]any{
		"title":        "Breakfast",
		"assignedToId": "w1",
		"frequency":    "daily",
	}, nil)
	require.True(t, template.OK(), template.Msg)

	generated := env.Call(http.MethodPost, "/api/tasks/recurring/generate?date=2024-03-04", nil, nil)
	require.True(t, generated.OK(), generated.Msg)
	var tasks []models.Task
	testutil.DecodeInto(t, generated.Data, &tasks)
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].IsRecurring)
}

func TestWorkerPhotoUploadIsServed(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.Call(http.MethodPost, "/api/workers", map[string]string{"name": "Alice", "organizationId": "org-1"}, nil)
	require.True(t, created.OK(), created.Msg)
	var worker models.Worker
	testutil.DecodeInto(t, created.Data, &worker)

	content := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "alice.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workers/"+worker.ID+"/photo-file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	resp := testutil.DecodeResponse(t, w)
	require.True(t, resp.OK(), resp.Msg)

	var updated models.Worker
	testutil.DecodeInto(t, resp.Data, &updated)
	require.True(t, strings.HasPrefix(updated.PhotoURL, "/uploads/worker-photos/worker_"+worker.ID+"_"), updated.PhotoURL)
	require.True(t, strings.HasSuffix(updated.PhotoURL, ".png"), updated.PhotoURL)

	served := env.Request(http.MethodGet, updated.PhotoURL, nil, nil)
	require.Equal(t, http.StatusOK, served.Code)
	require.Equal(t, content, served.Body.Bytes())
}

func TestWorkerPhotoUploadRejectsMarkupDisguisedAsImage(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.Call(http.MethodPost, "/api/workers", map[string]string{"name": "Mallory", "organizationId": "org-1"}, nil)
	require.True(t, created.OK(), created.Msg)
	var worker models.Worker
	testutil.DecodeInto(t, created.Data, &worker)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="evil.html"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("<html><script>alert(document.cookie)</script></html>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workers/"+worker.ID+"/photo-file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "400", resp.Code)
	require.Equal(t, "Only image files are allowed!", resp.Msg)

	entries, err := os.ReadDir(filepath.Join(env.UploadDir, "worker-photos"))
	require.NoError(t, err)
	require.Empty(t, entries)

	reloaded := env.Call(http.MethodGet, "/api/workers/"+worker.ID, nil, nil)
	require.True(t, reloaded.OK(), reloaded.Msg)
	testutil.DecodeInto(t, reloaded.Data, &worker)
	require.Empty(t, worker.PhotoURL)
}

func TestRootHealthAndFallback(t *testing.T) {
	env := testutil.NewEnv(t)

	root := env.Request(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, root.Code)
	require.Equal(t, "CareApp Backend is running!", root.Body.String())

	health := env.Call(http.MethodGet, "/api/health", nil, nil)
	require.True(t, health.OK())
	var status map[string]string
	testutil.DecodeInto(t, health.Data, &status)
	require.Equal(t, "UP", status["status"])
	require.Equal(t, "carecoord", status["service"])

	metrics := env.Request(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Body.String(), "carecoord_api_latency_seconds")

	unknown := env.Call(http.MethodGet, "/api/nope", nil, nil)
	require.Equal(t, "404", unknown.Code)
}

func TestPatientAccessFlow(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.Call(http.MethodPost, "/api/patients", map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "familyMemberId": "fm-1", "dateOfBirth": "1950-12-10",
	}, nil)
	require.True(t, created.OK(), created.Msg)
	var patient models.Patient
	testutil.DecodeInto(t, created.Data, &patient)

	authorized := env.Call(http.MethodGet, "/api/patients/authorized/fm-1?userType=FM", nil, nil)
	require.Equal(t, "Authorized patients retrieved successfully!", authorized.Msg)
	var patients []models.Patient
	testutil.DecodeInto(t, authorized.Data, &patients)
	require.Len(t, patients, 1)
	require.Equal(t, patient.ID, patients[0].ID)

	invalid := env.Call(http.MethodPost, "/api/patients", map[string]string{"lastName": "Nobody"}, nil)
	require.Equal(t, "400", invalid.Code)
	require.Equal(t, "Failed to create patient!", invalid.Msg)

	deleted := env.Call(http.MethodDelete, "/api/patients/"+patient.ID, nil, nil)
	require.Equal(t, "Patient deleted successfully!", deleted.Msg)

	missing := env.Call(http.MethodGet, "/api/patients/"+patient.ID, nil, nil)
	require.Equal(t, "404", missing.Code)
	require.Equal(t, "Patient not found!", missing.Msg)
}

func TestTaskRequestApprovalCreatesTask(t *testing.T) {
	env := testutil.NewEnv(t)
	family := map[string]string{"X-User-Id": "fm-1", "X-Organization-Id": "org-1", "X-Patient-Id": "p1"}

	filed := env.Call(http.MethodPost, "/api/task-requests", map[string]string{
		"taskTitle": "Evening walk", "requestType": "new", "startDate": "2024-03-10",
	}, family)
	require.True(t, filed.OK(), filed.Msg)
	var request models.TaskRequest
	testutil.DecodeInto(t, filed.Data, &request)
	require.Equal(t, models.TaskRequestPending, request.Status)
	require.Equal(t, "fm-1", request.RequesterID)

	pending := env.Call(http.MethodGet, "/api/task-requests/pending/organization/org-1", nil, nil)
	var queue []models.TaskRequest
	testutil.DecodeInto(t, pending.Data, &queue)
	require.Len(t, queue, 1)

	approved := env.Call(http.MethodPost, "/api/task-requests/"+request.ID+"/approve",
		map[string]string{"approvalReason": "fine"}, map[string]string{"X-User-Id": "manager-9"})
	require.Equal(t, "Task request approved successfully!", approved.Msg)

	again := env.Call(http.MethodPost, "/api/task-requests/"+request.ID+"/reject", map[string]string{}, nil)
	require.Equal(t, "400", again.Code)

	byPatient := env.Call(http.MethodGet, "/api/tasks/patient/p1/all", nil, nil)
	var tasks []models.Task
	testutil.DecodeInto(t, byPatient.Data, &tasks)
	require.Len(t, tasks, 1)
	require.Equal(t, "Evening walk", tasks[0].Title)
	require.Equal(t, "2024-03-10", tasks[0].DueDate)

	stats := env.Call(http.MethodGet, "/api/task-requests/stats/requester/fm-1", nil, nil)
	require.JSONEq(t, `{"total":1,"pending":0,"approved":1,"rejected":0}`, string(stats.Data))
}

func TestMessageRaisesLiveNotification(t *testing.T) {
	env := testutil.NewEnv(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	token, err := env.JWT.GenerateAccessToken(iauth.AccessTokenInput{UserID: "u2"})
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// a pong proves the connection is registered before anything is published
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong notifications.Event
	require.NoError(t, conn.ReadJSON(&pong))
	require.Equal(t, notifications.EventPong, pong.Event)

	sent := env.Call(http.MethodPost, "/api/messages", map[string]string{
		"subject": "Lunch", "content": "Noon?", "toUserId": "u2", "fromUserName": "Ann",
	}, map[string]string{"X-User-Id": "u1"})
	require.True(t, sent.OK(), sent.Msg)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event notifications.Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, notifications.EventCreated, event.Event)
	require.NotEmpty(t, event.NotificationID)

	unread := env.Call(http.MethodGet, "/api/notifications/unread", nil, map[string]string{"X-User-Id": "u2"})
	var items []models.Notification
	testutil.DecodeInto(t, unread.Data, &items)
	require.Len(t, items, 1)
	require.Equal(t, "You have received a new message from Ann: Lunch", items[0].Message)

	inbox := env.Call(http.MethodGet, "/api/messages/unread/count", nil, map[string]string{"X-User-Id": "u2"})
	require.JSONEq(t, "1", string(inbox.Data))

	rejected := env.Call(http.MethodGet, "/api/notifications/stream?token=bogus", nil, nil)
	require.Equal(t, "401", rejected.Code)
}
