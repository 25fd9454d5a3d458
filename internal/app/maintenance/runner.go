package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/logger"
	"github.com/careapp/carecoord/pkg/metrics"
)

const (
	defaultRecurringSpec = "5 0 * * *"
	defaultInviteSpec    = "0 3 * * *"
	defaultCacheSpec     = "*/15 * * * *"
	defaultNotifySpec    = "30 3 * * *"

	jobRecurringTasks      = "recurring_tasks"
	jobInviteCleanup       = "invite_cleanup"
	jobCachePurge          = "cache_purge"
	jobNotificationCleanup = "notification_cleanup"
)

// TaskGenerator materialises the day's tasks from active recurring templates.
type TaskGenerator interface {
	Generate(ctx context.Context, date string) ([]models.Task, error)
}

// InviteCleaner removes invite codes that expired without being used.
type InviteCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// NotificationCleaner removes notifications past their expiry.
type NotificationCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CachePurger drops expired entries from the database-backed cache.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Runner schedules background jobs: daily recurring task generation, expiry cleanup
// of invites and notifications, and cache purging. A nil dependency disables its job.
type Runner struct {
	tasks         TaskGenerator
	invites       InviteCleaner
	notifications NotificationCleaner
	cache         CachePurger
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger

	recurringSchedule    string
	inviteSchedule       string
	cacheSchedule        string
	notificationSchedule string
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithNow overrides the clock used to pick the generation date.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRecurringSchedule overrides the cron expression for recurring task generation.
func WithRecurringSchedule(spec string) Option {
	return func(r *Runner) {
		r.recurringSchedule = spec
	}
}

// WithInviteSchedule overrides the cron expression for invite code cleanup.
func WithInviteSchedule(spec string) Option {
	return func(r *Runner) {
		r.inviteSchedule = spec
	}
}

// WithCacheSchedule overrides the cron expression for cache purging.
func WithCacheSchedule(spec string) Option {
	return func(r *Runner) {
		r.cacheSchedule = spec
	}
}

// WithNotificationCleaner enables the expired notification cleanup job.
func WithNotificationCleaner(cleaner NotificationCleaner) Option {
	return func(r *Runner) {
		r.notifications = cleaner
	}
}

// WithNotificationSchedule overrides the cron expression for notification cleanup.
func WithNotificationSchedule(spec string) Option {
	return func(r *Runner) {
		r.notificationSchedule = spec
	}
}

// NewRunner constructs a Runner with the default schedules. Passing an empty
// schedule through an option disables that job's cron entry; RunOnce still runs it.
func NewRunner(tasks TaskGenerator, invites InviteCleaner, cache CachePurger, opts ...Option) *Runner {
	r := &Runner{
		tasks:                tasks,
		invites:              invites,
		cache:                cache,
		now:                  time.Now,
		log:                  logger.WithModule("maintenance"),
		recurringSchedule:    defaultRecurringSpec,
		inviteSchedule:       defaultInviteSpec,
		cacheSchedule:        defaultCacheSpec,
		notificationSchedule: defaultNotifySpec,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cron == nil {
		r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return r
}

// Start registers the enabled jobs and launches the scheduler.
func (r *Runner) Start() error {
	jobs := []struct {
		name    string
		spec    string
		enabled bool
		run     func(context.Context) error
	}{
		{jobRecurringTasks, r.recurringSchedule, r.tasks != nil, r.generateRecurring},
		{jobInviteCleanup, r.inviteSchedule, r.invites != nil, r.cleanupInvites},
		{jobCachePurge, r.cacheSchedule, r.cache != nil, r.purgeCache},
		{jobNotificationCleanup, r.notificationSchedule, r.notifications != nil, r.cleanupNotifications},
	}

	registered := 0
	for _, job := range jobs {
		if !job.enabled || job.spec == "" {
			continue
		}
		name, run := job.name, job.run
		if _, err := r.cron.AddFunc(job.spec, func() {
			if err := r.execute(context.Background(), name, run); err != nil {
				r.log.Warn("maintenance job failed", zap.String("job", name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", name, err)
		}
		registered++
	}

	if registered == 0 {
		return nil
	}

	r.cron.Start()
	r.log.Info("maintenance scheduler started", zap.Int("jobs", registered))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (r *Runner) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce executes every configured job sequentially and aggregates failures.
func (r *Runner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if r.tasks != nil {
		errs = multierr.Append(errs, r.execute(ctx, jobRecurringTasks, r.generateRecurring))
	}
	if r.invites != nil {
		errs = multierr.Append(errs, r.execute(ctx, jobInviteCleanup, r.cleanupInvites))
	}
	if r.cache != nil {
		errs = multierr.Append(errs, r.execute(ctx, jobCachePurge, r.purgeCache))
	}
	if r.notifications != nil {
		errs = multierr.Append(errs, r.execute(ctx, jobNotificationCleanup, r.cleanupNotifications))
	}
	return errs
}

func (r *Runner) execute(ctx context.Context, name string, run func(context.Context) error) error {
	if err := run(ctx); err != nil {
		metrics.MaintenanceRuns.WithLabelValues(name, "failure").Inc()
		return fmt.Errorf("maintenance: %s: %w", name, err)
	}
	metrics.MaintenanceRuns.WithLabelValues(name, "success").Inc()
	return nil
}

func (r *Runner) generateRecurring(ctx context.Context) error {
	date := r.now().Format("2006-01-02")
	tasks, err := r.tasks.Generate(ctx, date)
	if err != nil {
		return err
	}
	r.log.Info("recurring tasks generated", zap.String("date", date), zap.Int("count", len(tasks)))
	return nil
}

func (r *Runner) cleanupInvites(ctx context.Context) error {
	removed, err := r.invites.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info("expired invite codes removed", zap.Int64("count", removed))
	}
	return nil
}

func (r *Runner) purgeCache(ctx context.Context) error {
	removed, err := r.cache.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Debug("expired cache entries purged", zap.Int64("count", removed))
	}
	return nil
}

func (r *Runner) cleanupNotifications(ctx context.Context) error {
	removed, err := r.notifications.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info("expired notifications removed", zap.Int64("count", removed))
	}
	return nil
}
