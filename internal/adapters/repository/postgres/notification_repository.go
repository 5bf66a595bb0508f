package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const notificationColumns = `id, type, for_role, member_id, request_id, payload, read, created_at`

// NotificationRepository は PostgreSQL を利用した通知ログの実装です。
type NotificationRepository struct {
	pool pgdb.Queryer
}

// NewNotificationRepository は NotificationRepository を生成します。
func NewNotificationRepository(pool pgdb.Queryer) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Append は通知を追記します。
func (r *NotificationRepository) Append(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	payload, err := encodePayload(n.Payload)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO notifications (`+notificationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+notificationColumns+`
    `,
		n.ID,
		string(n.Type),
		string(n.ForRole),
		n.MemberID,
		n.RequestID,
		payload,
		n.Read,
		n.CreatedAt,
	)

	created, err := scanNotification(row)
	if err != nil {
		return nil, translateNotificationPgError(err)
	}
	return created, nil
}

// List は条件に合う通知を追記順に返します。
func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	whereClause, args := notificationWhere(filter)
	query := `
        SELECT ` + notificationColumns + `
          FROM notifications` + whereClause + `
         ORDER BY seq
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateNotificationPgError(err)
	}
	defer rows.Close()

	result := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, translateNotificationPgError(err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, translateNotificationPgError(err)
	}
	return result, nil
}

// MarkAsRead は通知を既読にします。
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) (*notification.Notification, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE notifications
           SET read = TRUE
         WHERE id = $1
        RETURNING `+notificationColumns+`
    `, id)

	marked, err := scanNotification(row)
	if err != nil {
		return nil, translateNotificationPgError(err)
	}
	return marked, nil
}

// MarkAllAsRead は条件に合う未読通知をすべて既読にし、更新件数を返します。
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, filter notification.Filter) (int, error) {
	filter.UnreadOnly = true
	whereClause, args := notificationWhere(filter)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE notifications SET read = TRUE`+whereClause, args...)
	if err != nil {
		return 0, translateNotificationPgError(err)
	}
	return int(tag.RowsAffected()), nil
}

func notificationWhere(filter notification.Filter) (string, []any) {
	args := make([]any, 0, 2)
	conditions := make([]string, 0, 3)

	if filter.ForRole != "" {
		args = append(args, string(filter.ForRole))
		conditions = append(conditions, "for_role = $"+strconv.Itoa(len(args)))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, "member_id = $"+strconv.Itoa(len(args)))
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = FALSE")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n         notification.Notification
		kind      string
		forRole   string
		payload   []byte
		createdAt time.Time
	)

	if err := row.Scan(
		&n.ID,
		&kind,
		&forRole,
		&n.MemberID,
		&n.RequestID,
		&payload,
		&n.Read,
		&createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}

	decoded, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	n.Type = notification.Type(kind)
	n.ForRole = member.Role(forRole)
	n.Payload = decoded
	n.CreatedAt = createdAt.UTC()
	return &n, nil
}

func translateNotificationPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notification.ErrNotificationNotFound
	}
	return err
}

func encodePayload(payload map[string]string) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode notification payload: %w", err)
	}
	return b, nil
}

func decodePayload(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]string
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("postgres: decode notification payload: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}
