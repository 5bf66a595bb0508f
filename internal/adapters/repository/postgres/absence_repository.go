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
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const absenceColumns = `id, member_id, type, start_date, end_date, is_partial, partial_start, partial_end,
               note, request_id, created_at, updated_at, version`

// AbsenceRepository は PostgreSQL を利用した不在台帳の実装です。
type AbsenceRepository struct {
	pool pgdb.Queryer
}

// NewAbsenceRepository は AbsenceRepository を生成します。
func NewAbsenceRepository(pool pgdb.Queryer) *AbsenceRepository {
	return &AbsenceRepository{pool: pool}
}

// Create は不在を保存します。
func (r *AbsenceRepository) Create(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	partialStart, partialEnd := nullableTimeRange(a.Partial)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO absences (`+absenceColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING `+absenceColumns+`
    `,
		a.ID,
		a.MemberID,
		string(a.Type),
		dateArg(a.StartDate),
		dateArg(a.EndDate),
		a.IsPartial,
		partialStart,
		partialEnd,
		a.Note,
		nullableString(a.RequestID),
		a.CreatedAt,
		a.UpdatedAt,
		a.Version,
	)

	created, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return created, nil
}

// Update はバージョンが一致する場合のみ不在を更新します。
func (r *AbsenceRepository) Update(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	partialStart, partialEnd := nullableTimeRange(a.Partial)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE absences
           SET type = $1,
               start_date = $2,
               end_date = $3,
               is_partial = $4,
               partial_start = $5,
               partial_end = $6,
               note = $7,
               updated_at = $8,
               version = version + 1
         WHERE id = $9 AND version = $10
        RETURNING `+absenceColumns+`
    `,
		string(a.Type),
		dateArg(a.StartDate),
		dateArg(a.EndDate),
		a.IsPartial,
		partialStart,
		partialEnd,
		a.Note,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)

	updated, err := scanAbsence(row)
	if errors.Is(err, absence.ErrAbsenceNotFound) {
		return nil, resolveMissingRow(ctx, exec, "absences", a.ID, absence.ErrAbsenceNotFound, absence.ErrVersionConflict)
	}
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return updated, nil
}

// Delete は不在を削除します。
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM absences WHERE id = $1`, id)
	if err != nil {
		return translateAbsencePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return absence.ErrAbsenceNotFound
	}
	return nil
}

// FindByID は ID で不在を取得します。
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*absence.Absence, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+absenceColumns+`
          FROM absences
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return found, nil
}

// List は条件に合う不在を開始日、ID の順に返します。
func (r *AbsenceRepository) List(ctx context.Context, filter absence.ListFilter) ([]*absence.Absence, error) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 2)

	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, "member_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Range != nil {
		args = append(args, dateArg(filter.Range.End))
		conditions = append(conditions, "start_date <= $"+strconv.Itoa(len(args)))
		args = append(args, dateArg(filter.Range.Start))
		conditions = append(conditions, "end_date >= $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT ` + absenceColumns + `
          FROM absences` + whereClause + `
         ORDER BY start_date, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	defer rows.Close()

	absences := make([]*absence.Absence, 0)
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, translateAbsencePgError(err)
		}
		absences = append(absences, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAbsencePgError(err)
	}
	return absences, nil
}

// CountByMember はメンバーの不在件数を返します。
func (r *AbsenceRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var n int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM absences WHERE member_id = $1`, memberID).Scan(&n); err != nil {
		return 0, translateAbsencePgError(err)
	}
	return n, nil
}

func scanAbsence(row pgx.Row) (*absence.Absence, error) {
	var (
		a            absence.Absence
		kind         string
		startDate    time.Time
		endDate      time.Time
		partialStart sql.NullInt16
		partialEnd   sql.NullInt16
		requestID    sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&a.ID,
		&a.MemberID,
		&kind,
		&startDate,
		&endDate,
		&a.IsPartial,
		&partialStart,
		&partialEnd,
		&a.Note,
		&requestID,
		&createdAt,
		&updatedAt,
		&a.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, absence.ErrAbsenceNotFound
		}
		return nil, err
	}

	a.Type = absence.Type(kind)
	a.StartDate = toDate(startDate)
	a.EndDate = toDate(endDate)
	a.Partial = scannedTimeRange(partialStart, partialEnd)
	a.RequestID = requestID.String
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return &a, nil
}

func translateAbsencePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return absence.ErrAbsenceNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "absences_member_id_fkey" {
				return member.ErrMemberNotFound
			}
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "absences_type_check":
				return absence.ErrInvalidType
			case "absences_date_range_check":
				return absence.ErrInvalidRange
			}
		}
	}

	return err
}
