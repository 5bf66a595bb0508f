package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/request"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const requestColumns = `id, member_id, type, start_date, end_date, is_partial, partial_start, partial_end, reason,
               status, reviewed_by, reviewed_at, rejection_reason, absence_id, created_at, updated_at, version`

// RequestRepository は PostgreSQL を利用した不在申請の実装です。
type RequestRepository struct {
	pool pgdb.Queryer
}

// NewRequestRepository は RequestRepository を生成します。
func NewRequestRepository(pool pgdb.Queryer) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// Create は申請を保存します。
func (r *RequestRepository) Create(ctx context.Context, req *request.Request) (*request.Request, error) {
	partialStart, partialEnd := nullableTimeRange(req.Partial)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO absence_requests (`+requestColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        RETURNING `+requestColumns+`
    `,
		req.ID,
		req.MemberID,
		string(req.Type),
		dateArg(req.StartDate),
		dateArg(req.EndDate),
		req.IsPartial,
		partialStart,
		partialEnd,
		req.Reason,
		string(req.Status),
		req.ReviewedBy,
		nullableTimePtr(req.ReviewedAt),
		req.RejectionReason,
		nullableString(req.AbsenceID),
		req.CreatedAt,
		req.UpdatedAt,
		req.Version,
	)

	created, err := scanRequest(row)
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	return created, nil
}

// Update はバージョンが一致する場合のみ申請を更新します。
func (r *RequestRepository) Update(ctx context.Context, req *request.Request) (*request.Request, error) {
	partialStart, partialEnd := nullableTimeRange(req.Partial)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE absence_requests
           SET type = $1,
               start_date = $2,
               end_date = $3,
               is_partial = $4,
               partial_start = $5,
               partial_end = $6,
               reason = $7,
               status = $8,
               reviewed_by = $9,
               reviewed_at = $10,
               rejection_reason = $11,
               absence_id = $12,
               updated_at = $13,
               version = version + 1
         WHERE id = $14 AND version = $15
        RETURNING `+requestColumns+`
    `,
		string(req.Type),
		dateArg(req.StartDate),
		dateArg(req.EndDate),
		req.IsPartial,
		partialStart,
		partialEnd,
		req.Reason,
		string(req.Status),
		req.ReviewedBy,
		nullableTimePtr(req.ReviewedAt),
		req.RejectionReason,
		nullableString(req.AbsenceID),
		req.UpdatedAt,
		req.ID,
		req.Version,
	)

	updated, err := scanRequest(row)
	if errors.Is(err, request.ErrRequestNotFound) {
		return nil, resolveMissingRow(ctx, exec, "absence_requests", req.ID, request.ErrRequestNotFound, request.ErrVersionConflict)
	}
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	return updated, nil
}

// Delete は申請を削除します。
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM absence_requests WHERE id = $1`, id)
	if err != nil {
		return translateRequestPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return request.ErrRequestNotFound
	}
	return nil
}

// FindByID は ID で申請を取得します。
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+requestColumns+`
          FROM absence_requests
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanRequest(row)
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	return found, nil
}

// List は条件に合う申請を作成日時、ID の順に返します。
func (r *RequestRepository) List(ctx context.Context, filter request.ListFilter) ([]*request.Request, error) {
	whereClause, args := requestWhere(filter)
	query := `
        SELECT ` + requestColumns + `
          FROM absence_requests` + whereClause + `
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateRequestPgError(err)
	}
	defer rows.Close()

	requests := make([]*request.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, translateRequestPgError(err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, translateRequestPgError(err)
	}
	return requests, nil
}

// Count は条件に合う申請の件数を返します。
func (r *RequestRepository) Count(ctx context.Context, filter request.ListFilter) (int, error) {
	whereClause, args := requestWhere(filter)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var n int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM absence_requests`+whereClause, args...).Scan(&n); err != nil {
		return 0, translateRequestPgError(err)
	}
	return n, nil
}

func requestWhere(filter request.ListFilter) (string, []any) {
	args := make([]any, 0, 2)
	conditions := make([]string, 0, 2)

	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, "member_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var (
		req          request.Request
		kind         string
		startDate    time.Time
		endDate      time.Time
		partialStart sql.NullInt16
		partialEnd   sql.NullInt16
		status       string
		reviewedAt   sql.NullTime
		absenceID    sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&req.ID,
		&req.MemberID,
		&kind,
		&startDate,
		&endDate,
		&req.IsPartial,
		&partialStart,
		&partialEnd,
		&req.Reason,
		&status,
		&req.ReviewedBy,
		&reviewedAt,
		&req.RejectionReason,
		&absenceID,
		&createdAt,
		&updatedAt,
		&req.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}

	req.Type = absence.Type(kind)
	req.StartDate = toDate(startDate)
	req.EndDate = toDate(endDate)
	req.Partial = scannedTimeRange(partialStart, partialEnd)
	req.Status = request.Status(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		req.ReviewedAt = &t
	}
	req.AbsenceID = absenceID.String
	req.CreatedAt = createdAt.UTC()
	req.UpdatedAt = updatedAt.UTC()
	return &req, nil
}

func translateRequestPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return request.ErrRequestNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "absence_requests_member_id_fkey":
				return member.ErrMemberNotFound
			case "absence_requests_absence_id_fkey":
				return absence.ErrAbsenceNotFound
			}
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "absence_requests_status_check":
				return request.ErrInvalidStatus
			case "absence_requests_date_range_check":
				return request.ErrInvalidRange
			}
		}
	}

	return err
}

func nullableTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
