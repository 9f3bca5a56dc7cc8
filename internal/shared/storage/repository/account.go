package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lending-api/internal/shared/model"
)

const accountColumns = `id, user_id, type, balance, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Balance, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAccount 创建账户
func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO accounts (user_id, type, balance, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`),
		account.UserID, account.Type, account.Balance, account.CreatedAt,
	).Scan(&account.ID)
	return s.wrapError(err)
}

// GetAccountForUser 获取属于 userID 的账户
func (s *Store) GetAccountForUser(ctx context.Context, id, userID int64) (*model.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`), id, userID))
}

// ListAccountsByUser 列出用户的账户（新→旧）
func (s *Store) ListAccountsByUser(ctx context.Context, userID int64) ([]*model.Account, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
