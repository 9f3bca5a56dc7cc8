package mongostore

import (
	"context"
	"time"

	"lending-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// AccountStore
// ============================================================================

func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	id, err := s.nextID(ctx, ColAccounts)
	if err != nil {
		return err
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.ID = id
	if err := insertOne(ctx, s.col(ColAccounts), account); err != nil {
		account.ID = 0
		return err
	}
	return nil
}

func (s *Store) GetAccountForUser(ctx context.Context, id, userID int64) (*model.Account, error) {
	return findOne[model.Account](ctx, s.col(ColAccounts), bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: userID},
	})
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID int64) ([]*model.Account, error) {
	return findMany[model.Account](ctx, s.col(ColAccounts), bson.D{{Key: "user_id", Value: userID}}, newestFirst())
}
