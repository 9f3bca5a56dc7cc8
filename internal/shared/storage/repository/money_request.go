package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lending-api/internal/shared/model"
)

const moneyRequestColumns = `id, borrower_id, lender_id, title, description, amount, frequency, term, created_at, updated_at`

func scanMoneyRequest(row interface{ Scan(...any) error }) (*model.MoneyRequest, error) {
	mr := &model.MoneyRequest{}
	err := row.Scan(&mr.ID, &mr.BorrowerID, &mr.LenderID, &mr.Title, &mr.Description,
		&mr.Amount, &mr.Frequency, &mr.Term, &mr.CreatedAt, &mr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mr, nil
}

// CreateMoneyRequest 创建借款请求
func (s *Store) CreateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error {
	now := time.Now().UTC()
	if mr.CreatedAt.IsZero() {
		mr.CreatedAt = now
	}
	mr.UpdatedAt = now
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO money_requests (borrower_id, lender_id, title, description, amount, frequency, term, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`),
		mr.BorrowerID, mr.LenderID, mr.Title, mr.Description,
		mr.Amount, mr.Frequency, mr.Term, mr.CreatedAt, mr.UpdatedAt,
	).Scan(&mr.ID)
	return s.wrapError(err)
}

// GetMoneyRequestForBorrower 获取借款人为 borrowerID 的请求
func (s *Store) GetMoneyRequestForBorrower(ctx context.Context, id, borrowerID int64) (*model.MoneyRequest, error) {
	return scanMoneyRequest(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+moneyRequestColumns+` FROM money_requests WHERE id = $1 AND borrower_id = $2`), id, borrowerID))
}

// ListMoneyRequestsByBorrower 列出借款人的请求（新→旧）
func (s *Store) ListMoneyRequestsByBorrower(ctx context.Context, borrowerID int64) ([]*model.MoneyRequest, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+moneyRequestColumns+` FROM money_requests WHERE borrower_id = $1 ORDER BY id DESC`), borrowerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*model.MoneyRequest{}
	for rows.Next() {
		mr, err := scanMoneyRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, mr)
	}
	return requests, rows.Err()
}

// UpdateMoneyRequest 更新借款请求；borrower_id 只出现在 WHERE 中
func (s *Store) UpdateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error {
	mr.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE money_requests SET lender_id = $1, title = $2, description = $3,
		 amount = $4, frequency = $5, term = $6, updated_at = $7
		 WHERE id = $8 AND borrower_id = $9`),
		mr.LenderID, mr.Title, mr.Description,
		mr.Amount, mr.Frequency, mr.Term, mr.UpdatedAt,
		mr.ID, mr.BorrowerID,
	)
	if err != nil {
		return s.wrapError(err)
	}
	return requireAffected(res)
}

// DeleteMoneyRequest 删除借款人为 borrowerID 的请求
func (s *Store) DeleteMoneyRequest(ctx context.Context, id, borrowerID int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM money_requests WHERE id = $1 AND borrower_id = $2`), id, borrowerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
