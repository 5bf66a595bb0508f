package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type stubReminder struct {
	calls    int
	count    int
	err      error
	deadline bool
}

func (s *stubReminder) RemindPending(ctx context.Context) (int, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	return s.count, s.err
}

func TestScheduler_AddPendingReminder(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, WithLocation(time.UTC))

	if err := s.AddPendingReminder("", &stubReminder{}); err != nil {
		t.Fatalf("expected empty spec to be ignored, got %v", err)
	}
	if s.Entries() != 0 {
		t.Fatalf("expected no entries, got %d", s.Entries())
	}

	if err := s.AddPendingReminder("0 9 * * 1-5", &stubReminder{}); err != nil {
		t.Fatalf("AddPendingReminder returned error: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Entries())
	}

	if err := s.AddPendingReminder("not a cron", &stubReminder{}); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestScheduler_Remind(t *testing.T) {
	t.Parallel()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s := NewScheduler(log, WithTimeout(5*time.Second))

	ok := &stubReminder{count: 3}
	s.remind(ok)
	if ok.calls != 1 || !ok.deadline {
		t.Fatalf("expected one call with deadline, got %+v", ok)
	}
	if last := hook.LastEntry(); last == nil || last.Data["pending"] != 3 {
		t.Fatalf("expected pending count to be logged, got %v", last)
	}

	failing := &stubReminder{err: errors.New("db down")}
	s.remind(failing)
	last := hook.LastEntry()
	if last == nil || last.Level != logrus.ErrorLevel || last.Message != "pending reminder failed" {
		t.Fatalf("expected error log, got %v", last)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.AddPendingReminder("@hourly", &stubReminder{}); err != nil {
		t.Fatalf("AddPendingReminder returned error: %v", err)
	}
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	if ctx.Err() != nil {
		t.Fatalf("expected stop before timeout")
	}
}
