package mongostore

import (
	"context"
	"time"

	"lending-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id, err := s.nextID(ctx, ColUsers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.ID = id
	if err := insertOne(ctx, s.col(ColUsers), user); err != nil {
		user.ID = 0
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	return updateFields(ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: user.ID}}, bson.D{
		{Key: "email", Value: user.Email},
		{Key: "name", Value: user.Name},
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "is_active", Value: user.IsActive},
		{Key: "is_staff", Value: user.IsStaff},
		{Key: "is_superuser", Value: user.IsSuperuser},
		{Key: "updated_at", Value: user.UpdatedAt},
	})
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return updateFields(ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}}, bson.D{
		{Key: "last_login", Value: at.UTC()},
	})
}

// DeleteUser 删除用户，并手动级联删除其账户和相关借款请求
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.col(ColAccounts).DeleteMany(ctx, bson.D{{Key: "user_id", Value: id}}); err != nil {
		return wrapError(err)
	}
	if _, err := s.col(ColMoneyRequests).DeleteMany(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "borrower_id", Value: id}},
		bson.D{{Key: "lender_id", Value: id}},
	}}}); err != nil {
		return wrapError(err)
	}
	return deleteOne(ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}
