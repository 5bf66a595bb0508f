package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PendingReminder は審査待ち申請のリマインダーを発行します。request.Service が満たします。
type PendingReminder interface {
	RemindPending(ctx context.Context) (int, error)
}

// Scheduler は定期ジョブを cron 式に従って実行します。
type Scheduler struct {
	cron    *cron.Cron
	log     logrus.FieldLogger
	timeout time.Duration
	loc     *time.Location
}

// Option は Scheduler の任意設定です。
type Option func(*Scheduler)

// WithTimeout は 1 回のジョブ実行に許す時間を設定します。
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLocation は cron 式を解釈するタイムゾーンを設定します。
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewScheduler は Scheduler を生成します。
func NewScheduler(log logrus.FieldLogger, opts ...Option) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{
		log:     log.WithField("component", "jobs"),
		timeout: time.Minute,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return s
}

// AddPendingReminder は審査待ちリマインダーを登録します。spec が空の場合は何もしません。
func (s *Scheduler) AddPendingReminder(spec string, reminder PendingReminder) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.remind(reminder)
	})
	if err != nil {
		return fmt.Errorf("schedule pending reminder %q: %w", spec, err)
	}
	s.log.WithField("cron", spec).Info("pending reminder scheduled")
	return nil
}

func (s *Scheduler) remind(reminder PendingReminder) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := reminder.RemindPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("pending reminder failed")
		return
	}
	s.log.WithField("pending", n).Debug("pending reminder checked")
}

// Start はスケジューラを起動します。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop は新しい実行を止め、実行中のジョブの完了を待ちます。
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("jobs did not finish before shutdown")
	}
}

// Entries は登録済みジョブ数を返します。
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []any) logrus.Fields {
	out := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out[key] = keysAndValues[i+1]
	}
	return out
}
