package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RememberSelection implements Store. Choosing a different key replaces the
// previous one; choosing the same key again bumps its count.
func (s *SQLiteStore) RememberSelection(ctx context.Context, listID, key string) error {
	if listID == "" {
		return errors.New("remember selection: list id is empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO selections (list_id, item_key, chosen_at_unix_ms, choose_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(list_id) DO UPDATE SET
		  choose_count = CASE WHEN item_key = excluded.item_key THEN choose_count + 1 ELSE 1 END,
		  item_key = excluded.item_key,
		  chosen_at_unix_ms = excluded.chosen_at_unix_ms
	`, listID, key, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("remember selection: %w", err)
	}
	return nil
}

// LastSelection implements Store.
func (s *SQLiteStore) LastSelection(ctx context.Context, listID string) (string, error) {
	sel, err := s.GetSelection(ctx, listID)
	if err != nil {
		return "", err
	}
	return sel.Key, nil
}

// GetSelection implements Store.
func (s *SQLiteStore) GetSelection(ctx context.Context, listID string) (*Selection, error) {
	sel := &Selection{ListID: listID}
	err := s.db.QueryRowContext(ctx, `
		SELECT item_key, chosen_at_unix_ms, choose_count
		FROM selections WHERE list_id = ?
	`, listID).Scan(&sel.Key, &sel.ChosenAtUnixMs, &sel.ChooseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get selection: %w", err)
	}
	return sel, nil
}

// ForgetSelection implements Store.
func (s *SQLiteStore) ForgetSelection(ctx context.Context, listID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selections WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("forget selection: %w", err)
	}
	return nil
}
