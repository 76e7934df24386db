package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

type senderRow struct {
	Mobile    string `db:"mobile"`
	Name      string `db:"name"`
	ID        int64  `db:"id"`
	FirstSeen int64  `db:"first_seen"`
}

// ResolveSender returns the id of the sender registered under mobile,
// registering it first when unknown. Unknown mobiles resolve to id 0.
func (s *SQLiteStorage) ResolveSender(ctx context.Context, mobile, name string) (int64, bool, error) {
	if err := validateContext(ctx); err != nil {
		return 0, false, err
	}
	mobile = strings.TrimSpace(mobile)
	if mobile == "" || mobile == model.MobileUnknown {
		return 0, false, nil
	}
	name = strings.TrimSpace(name)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO senders (mobile, name, first_seen) VALUES (?, ?, ?) ON CONFLICT(mobile) DO NOTHING`,
		mobile, name, time.Now().UnixNano())
	if err != nil {
		return 0, false, fmt.Errorf("failed to register sender: %w", err)
	}

	var id int64
	created := false
	if n, _ := result.RowsAffected(); n > 0 {
		created = true
		if id, err = result.LastInsertId(); err != nil {
			return 0, false, fmt.Errorf("failed to read sender id: %w", err)
		}
	} else {
		if err := tx.GetContext(ctx, &id, `SELECT id FROM senders WHERE mobile = ?`, mobile); err != nil {
			return 0, false, fmt.Errorf("failed to look up sender: %w", err)
		}
		if name != "" {
			if _, err := tx.ExecContext(ctx, `UPDATE senders SET name = ? WHERE id = ? AND name = ''`, name, id); err != nil {
				return 0, false, fmt.Errorf("failed to update sender name: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit sender: %w", err)
	}
	return id, created, nil
}

// GetSender looks a sender up by mobile number.
func (s *SQLiteStorage) GetSender(ctx context.Context, mobile string) (*model.Sender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(mobile, "mobile"); err != nil {
		return nil, err
	}

	var row senderRow
	err := s.db.GetContext(ctx, &row, `SELECT id, mobile, name, first_seen FROM senders WHERE mobile = ?`, mobile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sender %s: %w", mobile, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	return &model.Sender{
		ID:        row.ID,
		Mobile:    row.Mobile,
		Name:      row.Name,
		FirstSeen: time.Unix(0, row.FirstSeen),
	}, nil
}

// CountSenders returns the number of registered senders.
func (s *SQLiteStorage) CountSenders(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM senders`); err != nil {
		return 0, fmt.Errorf("failed to count senders: %w", err)
	}
	return n, nil
}
