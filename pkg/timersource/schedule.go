package timersource

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleKind selects how a Timer's next run is computed.
type ScheduleKind string

const (
	ScheduleAt    ScheduleKind = "at"
	ScheduleEvery ScheduleKind = "every"
	ScheduleCron  ScheduleKind = "cron"
)

// Schedule is a time specification for a Timer.
type Schedule struct {
	Kind ScheduleKind

	At string // ScheduleAt: RFC3339 timestamp

	EveryMs  int64  // ScheduleEvery: interval in milliseconds
	AnchorMs *int64 // ScheduleEvery: optional alignment point

	Expr string // ScheduleCron: 5-field cron expression
	TZ   string // ScheduleCron: optional IANA timezone
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextRun computes the next fire time in epoch milliseconds.
func nextRun(s Schedule) (int64, error) {
	switch s.Kind {
	case ScheduleAt:
		return nextRunAt(s)
	case ScheduleEvery:
		return nextRunEvery(s)
	case ScheduleCron:
		return nextRunCron(s)
	default:
		return 0, fmt.Errorf("unknown schedule kind: %s", s.Kind)
	}
}

func nextRunAt(s Schedule) (int64, error) {
	if s.At == "" {
		return 0, fmt.Errorf("'at' schedule requires At")
	}
	t, err := time.Parse(time.RFC3339, s.At)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %w", err)
	}
	return t.UnixMilli(), nil
}

func nextRunEvery(s Schedule) (int64, error) {
	if s.EveryMs <= 0 {
		return 0, fmt.Errorf("'every' schedule requires a positive EveryMs")
	}

	now := time.Now().UnixMilli()
	if s.AnchorMs == nil {
		return now + s.EveryMs, nil
	}

	anchor := *s.AnchorMs
	elapsed := now - anchor
	if elapsed < 0 {
		return anchor, nil
	}
	periods := elapsed / s.EveryMs
	return anchor + (periods+1)*s.EveryMs, nil
}

func nextRunCron(s Schedule) (int64, error) {
	if s.Expr == "" {
		return 0, fmt.Errorf("'cron' schedule requires Expr")
	}
	sched, err := cronParser.Parse(s.Expr)
	if err != nil {
		return 0, fmt.Errorf("invalid cron expression: %w", err)
	}

	now := time.Now()
	if s.TZ != "" {
		loc, err := time.LoadLocation(s.TZ)
		if err != nil {
			return 0, fmt.Errorf("invalid timezone: %w", err)
		}
		now = now.In(loc)
	}

	return sched.Next(now).UnixMilli(), nil
}
