package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// resolveMissingRow は version 条件付き UPDATE が 0 行だった理由を判別します。
func resolveMissingRow(ctx context.Context, exec pgdb.Queryer, table, id string, notFound, conflict error) error {
	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return conflict
	}
	return notFound
}

func dateArg(d calendar.Date) time.Time {
	return d.Time()
}

func dateArgs(dates []calendar.Date) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Time())
	}
	return out
}

func toDate(t time.Time) calendar.Date {
	return calendar.FromTime(t.UTC())
}

func toDates(values []time.Time) []calendar.Date {
	out := make([]calendar.Date, 0, len(values))
	for _, v := range values {
		out = append(out, toDate(v))
	}
	return out
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTimeRange(r *calendar.TimeRange) (any, any) {
	if r == nil {
		return nil, nil
	}
	return int16(r.Start), int16(r.End)
}

func scannedTimeRange(start, end sql.NullInt16) *calendar.TimeRange {
	if !start.Valid || !end.Valid {
		return nil
	}
	return &calendar.TimeRange{Start: calendar.TimeOfDay(start.Int16), End: calendar.TimeOfDay(end.Int16)}
}

func encodeSlots(slots []calendar.TimeRange) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}

func decodeSlots(raw []string) ([]calendar.TimeRange, error) {
	out := make([]calendar.TimeRange, 0, len(raw))
	for _, r := range raw {
		start, end, ok := strings.Cut(r, "-")
		if !ok {
			return nil, fmt.Errorf("postgres: malformed time slot %q", r)
		}
		tr, err := calendar.ParseTimeRange(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func encodeOverrides(o permission.Overrides) ([]byte, error) {
	if o == nil {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode permission overrides: %w", err)
	}
	return b, nil
}

func decodeOverrides(raw []byte) (permission.Overrides, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var o permission.Overrides
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("postgres: decode permission overrides: %w", err)
	}
	if len(o) == 0 {
		return nil, nil
	}
	return o, nil
}
