package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const memberColumns = `id, agency_id, name, email, phone, position, professions, skills, employment_type,
               working_days, work_start, work_end, role, permission_overrides, is_active, created_at, updated_at, version`

// MemberRepository は PostgreSQL を利用したメンバー永続化の実装です。
type MemberRepository struct {
	pool pgdb.Queryer
}

// NewMemberRepository は MemberRepository を生成します。
func NewMemberRepository(pool pgdb.Queryer) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create はメンバーを新規作成します。
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	overrides, err := encodeOverrides(m.PermissionOverrides)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO members (`+memberColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING `+memberColumns+`
    `,
		m.ID,
		m.AgencyID,
		m.Name,
		m.Email,
		m.Phone,
		m.Position,
		nonNilStrings(m.Professions),
		nonNilStrings(m.Skills),
		string(m.EmploymentType),
		int16(m.WorkingDays),
		int16(m.WorkingHours.Start),
		int16(m.WorkingHours.End),
		string(m.Role),
		overrides,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
		m.Version,
	)

	created, err := scanMember(row)
	if err != nil {
		return nil, translateMemberPgError(err)
	}
	return created, nil
}

// Update はバージョンが一致する場合のみメンバーを更新します。
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) (*member.Member, error) {
	overrides, err := encodeOverrides(m.PermissionOverrides)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE members
           SET name = $1,
               email = $2,
               phone = $3,
               position = $4,
               professions = $5,
               skills = $6,
               employment_type = $7,
               working_days = $8,
               work_start = $9,
               work_end = $10,
               role = $11,
               permission_overrides = $12,
               is_active = $13,
               updated_at = $14,
               version = version + 1
         WHERE id = $15 AND version = $16
        RETURNING `+memberColumns+`
    `,
		m.Name,
		m.Email,
		m.Phone,
		m.Position,
		nonNilStrings(m.Professions),
		nonNilStrings(m.Skills),
		string(m.EmploymentType),
		int16(m.WorkingDays),
		int16(m.WorkingHours.Start),
		int16(m.WorkingHours.End),
		string(m.Role),
		overrides,
		m.IsActive,
		m.UpdatedAt,
		m.ID,
		m.Version,
	)

	updated, err := scanMember(row)
	if errors.Is(err, member.ErrMemberNotFound) {
		return nil, resolveMissingRow(ctx, exec, "members", m.ID, member.ErrMemberNotFound, member.ErrVersionConflict)
	}
	if err != nil {
		return nil, translateMemberPgError(err)
	}
	return updated, nil
}

// Delete はメンバーを削除します。不在または割り当てが残っている場合は外部キー制約で失敗します。
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return translateMemberPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}

// FindByID は ID でメンバーを取得します。
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*member.Member, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+memberColumns+`
          FROM members
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanMember(row)
	if err != nil {
		return nil, translateMemberPgError(err)
	}
	return found, nil
}

// FindByEmail はエージェンシー内でメールアドレスが一致するメンバーを取得します。
func (r *MemberRepository) FindByEmail(ctx context.Context, agencyID, email string) (*member.Member, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+memberColumns+`
          FROM members
         WHERE agency_id = $1 AND email = $2 AND email <> ''
         LIMIT 1
    `, agencyID, email)

	found, err := scanMember(row)
	if err != nil {
		return nil, translateMemberPgError(err)
	}
	return found, nil
}

// List は条件に合うメンバーを作成日時、ID の順に返します。
func (r *MemberRepository) List(ctx context.Context, filter member.ListFilter) ([]*member.Member, error) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		conditions = append(conditions, "agency_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, "is_active = $"+strconv.Itoa(len(args)))
	}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		conditions = append(conditions, "role = $"+strconv.Itoa(len(args)))
	}
	if filter.Profession != "" {
		args = append(args, filter.Profession)
		conditions = append(conditions, "EXISTS (SELECT 1 FROM unnest(professions) AS p WHERE lower(p) = lower($"+strconv.Itoa(len(args))+"))")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
        SELECT ` + memberColumns + `
          FROM members` + whereClause + `
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateMemberPgError(err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, translateMemberPgError(err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateMemberPgError(err)
	}
	return members, nil
}

func scanMember(row pgx.Row) (*member.Member, error) {
	var (
		m           member.Member
		professions []string
		skills      []string
		employment  string
		workingDays int16
		workStart   int16
		workEnd     int16
		role        string
		overrides   []byte
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&m.ID,
		&m.AgencyID,
		&m.Name,
		&m.Email,
		&m.Phone,
		&m.Position,
		&professions,
		&skills,
		&employment,
		&workingDays,
		&workStart,
		&workEnd,
		&role,
		&overrides,
		&m.IsActive,
		&createdAt,
		&updatedAt,
		&m.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrMemberNotFound
		}
		return nil, err
	}

	decoded, err := decodeOverrides(overrides)
	if err != nil {
		return nil, err
	}

	m.Professions = professions
	m.Skills = skills
	m.EmploymentType = member.EmploymentType(employment)
	m.WorkingDays = calendar.WeekdaySet(workingDays)
	m.WorkingHours = calendar.TimeRange{Start: calendar.TimeOfDay(workStart), End: calendar.TimeOfDay(workEnd)}
	m.Role = member.Role(role)
	m.PermissionOverrides = decoded
	m.CreatedAt = createdAt.UTC()
	m.UpdatedAt = updatedAt.UTC()
	return &m, nil
}

func translateMemberPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return member.ErrMemberNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == "members_agency_email_key" {
				return member.ErrEmailAlreadyExists
			}
		case foreignKeyViolationCode:
			return member.ErrReferentialIntegrity
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "members_role_check":
				return member.ErrInvalidRole
			case "members_employment_type_check":
				return member.ErrInvalidEmploymentType
			case "members_working_hours_check":
				return member.ErrInvalidWorkingHours
			}
		}
	}

	return err
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
