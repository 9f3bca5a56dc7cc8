package mongostore

import (
	"context"
	"time"

	"lending-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// MoneyRequestStore
// ============================================================================

func (s *Store) CreateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error {
	id, err := s.nextID(ctx, ColMoneyRequests)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if mr.CreatedAt.IsZero() {
		mr.CreatedAt = now
	}
	mr.UpdatedAt = now
	mr.ID = id
	if err := insertOne(ctx, s.col(ColMoneyRequests), mr); err != nil {
		mr.ID = 0
		return err
	}
	return nil
}

func (s *Store) GetMoneyRequestForBorrower(ctx context.Context, id, borrowerID int64) (*model.MoneyRequest, error) {
	return findOne[model.MoneyRequest](ctx, s.col(ColMoneyRequests), byBorrower(id, borrowerID))
}

func (s *Store) ListMoneyRequestsByBorrower(ctx context.Context, borrowerID int64) ([]*model.MoneyRequest, error) {
	return findMany[model.MoneyRequest](ctx, s.col(ColMoneyRequests),
		bson.D{{Key: "borrower_id", Value: borrowerID}}, newestFirst())
}

func (s *Store) UpdateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error {
	mr.UpdatedAt = time.Now().UTC()
	return updateFields(ctx, s.col(ColMoneyRequests), byBorrower(mr.ID, mr.BorrowerID), bson.D{
		{Key: "lender_id", Value: mr.LenderID},
		{Key: "title", Value: mr.Title},
		{Key: "description", Value: mr.Description},
		{Key: "amount", Value: mr.Amount},
		{Key: "frequency", Value: mr.Frequency},
		{Key: "term", Value: mr.Term},
		{Key: "updated_at", Value: mr.UpdatedAt},
	})
}

func (s *Store) DeleteMoneyRequest(ctx context.Context, id, borrowerID int64) error {
	return deleteOne(ctx, s.col(ColMoneyRequests), byBorrower(id, borrowerID))
}

// byBorrower 归属过滤条件
func byBorrower(id, borrowerID int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "borrower_id", Value: borrowerID},
	}
}
