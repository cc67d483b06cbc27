package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/converse/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	if err := createMessage(ctx, d.db, create); err != nil {
		return nil, err
	}
	return create, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func createMessage(ctx context.Context, q querier, create *store.Message) error {
	fields := []string{"uid", "session_id", "character_name", "content", "created_ts", "is_deleted"}
	args := []any{create.UID, create.SessionID, create.CharacterName, create.Content, create.CreatedTs, create.IsDeleted}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SessionID; v != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.ExcludeDeleted {
		where = append(where, "is_deleted = 0")
	}

	// History reconstruction orders by insertion, not by timestamp.
	query := `SELECT id, uid, session_id, character_name, content, created_ts, is_deleted FROM message WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.UID, &m.SessionID, &m.CharacterName, &m.Content, &m.CreatedTs, &m.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateMessage(ctx context.Context, update *store.UpdateMessage) (*store.Message, error) {
	set, args := []string{}, []any{}

	if v := update.IsDeleted; v != nil {
		set, args = append(set, "is_deleted = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE message SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + ` RETURNING id, uid, session_id, character_name, content, created_ts, is_deleted`
	result := &store.Message{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&result.ID, &result.UID, &result.SessionID, &result.CharacterName, &result.Content, &result.CreatedTs, &result.IsDeleted,
	); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	return result, nil
}

func (d *DB) CreateTurn(ctx context.Context, userMsg *store.Message, assistantMsg *store.Message) (*store.Message, *store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// User message first so its id sorts before the reply.
	if err := createMessage(ctx, tx, userMsg); err != nil {
		return nil, nil, err
	}
	if err := createMessage(ctx, tx, assistantMsg); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit turn: %w", err)
	}

	return userMsg, assistantMsg, nil
}
