package api

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/app"
	"github.com/careapp/carecoord/internal/notifications"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/mail"
)

// Services groups the domain services shared by the router and background jobs.
type Services struct {
	Invites       *services.InviteCodeService
	Schedules     *services.ScheduleService
	Tasks         *services.TaskService
	Recurring     *services.RecurringTaskService
	Users         *services.UserService
	Workers       *services.WorkerService
	Patients      *services.PatientService
	Notifications *services.NotificationService
	TaskRequests  *services.TaskRequestService
	Messages      *services.MessageService
	Hub           *notifications.Hub
}

// NewServices constructs every domain service against db using cfg for tunables.
// A nil clock defaults to time.Now.
func NewServices(db *gorm.DB, cfg *app.Config, mailer mail.Mailer, clock func() time.Time) (*Services, error) {
	if db == nil {
		return nil, errors.New("database handle must be provided")
	}
	if cfg == nil {
		cfg = &app.Config{}
	}
	if clock == nil {
		clock = time.Now
	}

	invites, err := services.NewInviteCodeService(db,
		services.WithInviteCodeExpiry(cfg.Invites.Expiry),
		services.WithInviteCodeLength(cfg.Invites.CodeLength),
		services.WithInviteCodeClock(clock),
	)
	if err != nil {
		return nil, err
	}

	schedules, err := services.NewScheduleService(db, services.WithScheduleClock(clock))
	if err != nil {
		return nil, err
	}

	tasks, err := services.NewTaskService(db, services.WithTaskClock(clock))
	if err != nil {
		return nil, err
	}

	recurring, err := services.NewRecurringTaskService(db, services.WithRecurringTaskClock(clock))
	if err != nil {
		return nil, err
	}

	userOpts := []services.UserOption{
		services.WithUserClock(clock),
		services.WithPasswordResetTTL(cfg.Auth.ResetTTL()),
	}
	if mailer != nil {
		userOpts = append(userOpts, services.WithUserMailer(mailer))
	}
	users, err := services.NewUserService(db, userOpts...)
	if err != nil {
		return nil, err
	}

	workers, err := services.NewWorkerService(db, services.WithWorkerClock(clock))
	if err != nil {
		return nil, err
	}

	patients, err := services.NewPatientService(db)
	if err != nil {
		return nil, err
	}

	hub := notifications.NewHub()
	notificationSvc, err := services.NewNotificationService(db,
		services.WithNotificationClock(clock),
		services.WithNotificationPublisher(hub),
	)
	if err != nil {
		return nil, err
	}

	taskRequests, err := services.NewTaskRequestService(db, services.WithTaskRequestClock(clock))
	if err != nil {
		return nil, err
	}

	messages, err := services.NewMessageService(db,
		services.WithMessageClock(clock),
		services.WithMessageNotifier(notificationSvc),
	)
	if err != nil {
		return nil, err
	}

	return &Services{
		Invites:       invites,
		Schedules:     schedules,
		Tasks:         tasks,
		Recurring:     recurring,
		Users:         users,
		Workers:       workers,
		Patients:      patients,
		Notifications: notificationSvc,
		TaskRequests:  taskRequests,
		Messages:      messages,
		Hub:           hub,
	}, nil
}
