package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/member"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const assignmentColumns = `id, member_id, project_id, phase_id, dates, time_slots, project_role, note,
               created_at, updated_at, version`

// AssignmentRepository は PostgreSQL を利用した割り当てボードの実装です。
type AssignmentRepository struct {
	pool pgdb.Queryer
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(pool pgdb.Queryer) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// Create は割り当てを保存します。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO assignments (`+assignmentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+assignmentColumns+`
    `,
		a.ID,
		a.MemberID,
		a.ProjectID,
		a.PhaseID,
		dateArgs(a.Dates),
		encodeSlots(a.TimeSlots),
		a.ProjectRole,
		a.Note,
		a.CreatedAt,
		a.UpdatedAt,
		a.Version,
	)

	created, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return created, nil
}

// Update はバージョンが一致する場合のみ割り当てを更新します。
func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE assignments
           SET project_id = $1,
               phase_id = $2,
               dates = $3,
               time_slots = $4,
               project_role = $5,
               note = $6,
               updated_at = $7,
               version = version + 1
         WHERE id = $8 AND version = $9
        RETURNING `+assignmentColumns+`
    `,
		a.ProjectID,
		a.PhaseID,
		dateArgs(a.Dates),
		encodeSlots(a.TimeSlots),
		a.ProjectRole,
		a.Note,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)

	updated, err := scanAssignment(row)
	if errors.Is(err, assignment.ErrAssignmentNotFound) {
		return nil, resolveMissingRow(ctx, exec, "assignments", a.ID, assignment.ErrAssignmentNotFound, assignment.ErrVersionConflict)
	}
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return updated, nil
}

// Delete は割り当てを削除します。
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return translateAssignmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

// FindByID は ID で割り当てを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
          FROM assignments
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// List は条件に合う割り当てを最初の割り当て日、ID の順に返します。
func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.Assignment, error) {
	args := make([]any, 0, 5)
	conditions := make([]string, 0, 4)

	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, "member_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conditions = append(conditions, "project_id = $"+strconv.Itoa(len(args)))
	}
	if filter.PhaseID != "" {
		args = append(args, filter.PhaseID)
		conditions = append(conditions, "phase_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Range != nil {
		args = append(args, dateArg(filter.Range.Start), dateArg(filter.Range.End))
		conditions = append(conditions, "EXISTS (SELECT 1 FROM unnest(dates) AS d WHERE d BETWEEN $"+
			strconv.Itoa(len(args)-1)+" AND $"+strconv.Itoa(len(args))+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT ` + assignmentColumns + `
          FROM assignments` + whereClause + `
         ORDER BY dates[1], id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	assignments := make([]*assignment.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, translateAssignmentPgError(err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return assignments, nil
}

// CountByMember はメンバーの割り当て件数を返します。
func (r *AssignmentRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var n int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM assignments WHERE member_id = $1`, memberID).Scan(&n); err != nil {
		return 0, translateAssignmentPgError(err)
	}
	return n, nil
}

// LockMember はトランザクション終了までメンバー行を排他ロックします。
func (r *AssignmentRepository) LockMember(ctx context.Context, memberID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var id string
	if err := exec.QueryRow(ctx, `SELECT id FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.ErrMemberNotFound
		}
		return err
	}
	return nil
}

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	var (
		a         assignment.Assignment
		dates     []time.Time
		slots     []string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(
		&a.ID,
		&a.MemberID,
		&a.ProjectID,
		&a.PhaseID,
		&dates,
		&slots,
		&a.ProjectRole,
		&a.Note,
		&createdAt,
		&updatedAt,
		&a.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}

	timeSlots, err := decodeSlots(slots)
	if err != nil {
		return nil, err
	}
	a.Dates = toDates(dates)
	a.TimeSlots = timeSlots
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return &a, nil
}

func translateAssignmentPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "assignments_member_id_fkey" {
				return member.ErrMemberNotFound
			}
		case checkViolationCode:
			if pgErr.ConstraintName == "assignments_dates_check" {
				return assignment.ErrInvalidDates
			}
		}
	}

	return err
}
