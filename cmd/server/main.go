package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/teamplan/internal/adapters/grpc/handler"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/access"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"github.com/ogurasousui/teamplan/internal/core/request"
	"github.com/ogurasousui/teamplan/internal/core/utilization"
	"github.com/ogurasousui/teamplan/internal/platform/config"
	"github.com/ogurasousui/teamplan/internal/platform/jobs"
	"github.com/ogurasousui/teamplan/internal/platform/logging"
	"github.com/ogurasousui/teamplan/internal/platform/server"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("failed to initialize logger: %v", err)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, err := openBackend(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.close()

	defaults, err := agencyDefaults(cfg.Agency)
	if err != nil {
		return err
	}

	app := newApplication(store, defaults, log)

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.AddPendingReminder(cfg.Jobs.PendingReminderCron, app.requests); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"agency": cfg.Agency.ID,
	}).Info("starting teamplan")

	return server.New(cfg.Server.ListenAddr, app.handlers(), log).Run(ctx)
}

// application は組み立て済みのユースケース群です。
type application struct {
	members       *member.Service
	agencies      *agency.Service
	absences      *absence.Service
	assignments   *assignment.Service
	requests      *request.Service
	notifications *notification.Service
	detector      *conflict.Detector
	utilization   *utilization.Service
	access        *access.Service
}

func newApplication(b *backend, defaults agency.Defaults, log logrus.FieldLogger) *application {
	agencySvc := agency.NewService(b.agencies, nil, b.tx, defaults)
	notificationSvc := notification.NewService(b.notifications, nil, b.tx, notification.WithLogger(log))
	memberSvc := member.NewService(b.members, nil, b.tx,
		member.WithReferenceCounters(b.absences, b.assignments),
		member.WithDefaults(agencySvc),
		member.WithLogger(log),
	)

	lookup := assignment.NewLookup(b.assignments, b.tx)
	absenceSvc := absence.NewService(b.absences, memberSvc, nil, b.tx,
		absence.WithAssignments(lookup),
		absence.WithLogger(log),
	)
	detector := conflict.NewDetector(memberSvc, absenceSvc, lookup,
		conflict.WithHolidays(agencySvc),
		conflict.WithLogger(log),
	)
	assignmentSvc := assignment.NewService(b.assignments, detector, nil, b.tx,
		assignment.WithDispatcher(notificationSvc),
		assignment.WithLogger(log),
	)
	requestSvc := request.NewService(b.requests, memberSvc, absenceSvc, detector, nil, b.tx,
		request.WithDispatcher(notificationSvc),
		request.WithMemberLocker(b.assignments),
		request.WithLogger(log),
	)

	return &application{
		members:       memberSvc,
		agencies:      agencySvc,
		absences:      absenceSvc,
		assignments:   assignmentSvc,
		requests:      requestSvc,
		notifications: notificationSvc,
		detector:      detector,
		utilization:   utilization.NewService(memberSvc, detector, b.tx, utilization.WithLogger(log)),
		access:        access.NewService(memberSvc, agencySvc, b.tx, access.WithLogger(log)),
	}
}

func (a *application) handlers() server.Handlers {
	return server.Handlers{
		Member:       handler.NewMemberGrpcHandler(a.members),
		Absence:      handler.NewAbsenceGrpcHandler(a.absences),
		Assignment:   handler.NewAssignmentGrpcHandler(a.assignments),
		Request:      handler.NewRequestGrpcHandler(a.requests),
		Schedule:     handler.NewScheduleGrpcHandler(a.detector, a.utilization),
		Permission:   handler.NewPermissionGrpcHandler(a.access, a.agencies),
		Notification: handler.NewNotificationGrpcHandler(a.notifications),
	}
}

// agencyDefaults は設定ファイルのエージェンシー既定値をドメインの型に変換します。
func agencyDefaults(cfg config.AgencyConfig) (agency.Defaults, error) {
	var d agency.Defaults
	if len(cfg.WorkingDays) > 0 {
		days, err := calendar.ParseWeekdaySet(cfg.WorkingDays)
		if err != nil {
			return agency.Defaults{}, fmt.Errorf("agency.working_days: %w", err)
		}
		d.WorkingDays = days
	}
	if cfg.WorkingHoursStart != "" {
		hours, err := calendar.ParseTimeRange(cfg.WorkingHoursStart, cfg.WorkingHoursEnd)
		if err != nil {
			return agency.Defaults{}, fmt.Errorf("agency.working_hours: %w", err)
		}
		d.WorkingHours = hours
	}
	if cfg.HolidayRegion != "" {
		if _, err := calendar.NewHolidayCalendar(cfg.HolidayRegion); err != nil {
			return agency.Defaults{}, fmt.Errorf("agency.holiday_region: %w", err)
		}
		d.HolidayRegion = cfg.HolidayRegion
	}
	if len(cfg.PermissionDefaults) > 0 {
		d.PermissionDefaults = make(permission.Overrides, len(cfg.PermissionDefaults))
		for raw, v := range cfg.PermissionDefaults {
			key, err := permission.ParseKey(raw)
			if err != nil {
				return agency.Defaults{}, fmt.Errorf("agency.permission_defaults: %w", err)
			}
			d.PermissionDefaults[key] = v
		}
	}
	return d, nil
}
