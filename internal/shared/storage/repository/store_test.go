// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 repository 层所有存储接口的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"testing"
	"time"

	"lending-api/internal/shared/model"
	"lending-api/internal/shared/storage"
	"lending-api/internal/shared/storage/dbutil"
	sqlitedriver "lending-api/internal/shared/storage/driver/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	model.PasswordHashCost = bcrypt.MinCost
}

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()
	u, err := model.NewUser(email, "testpass", "Test User")
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.False(t, d.IsUniqueViolation(nil))
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?",
		d.Rebind("SELECT * FROM t WHERE id = $1 AND name = $2"))
	// 应去除 PG 类型转换
	assert.Equal(t, "UPDATE t SET status = ? WHERE id = ?",
		d.Rebind("UPDATE t SET status = $1::varchar WHERE id = $2"))
}

// ============================================================================
// User 测试
// ============================================================================

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "alice@example.com")
	assert.NotZero(t, u.ID)

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Test User", got.Name)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsStaff)
	assert.Nil(t, got.LastLogin)
	assert.True(t, got.CheckPassword("testpass"))

	got.Name = "Alice"
	got.Email = "alice2@example.com"
	require.NoError(t, s.UpdateUser(ctx, got))

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)
	assert.Equal(t, "alice2@example.com", byID.Email)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, u.ID, now))
	byID, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLogin)
	assert.WithinDuration(t, now, *byID.LastLogin, time.Second)
}

func TestUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetUserByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetUserByID(ctx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.UpdateUser(ctx, &model.User{ID: 9999, Email: "x@example.com"}), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, 9999), storage.ErrNotFound)
}

func TestUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "dup@example.com")

	u, err := model.NewUser("dup@example.com", "testpass", "Other")
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateUser(context.Background(), u), storage.ErrDuplicate)
}

func TestUser_UpdateToDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "first@example.com")
	second := createUser(t, s, "second@example.com")

	second.Email = "first@example.com"
	assert.ErrorIs(t, s.UpdateUser(context.Background(), second), storage.ErrDuplicate)
}

func TestUser_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "cascade@example.com")
	lender := createUser(t, s, "lender@example.com")

	require.NoError(t, s.CreateAccount(ctx, model.NewAccount(u.ID, model.AccountTypeBorrower)))
	mr := model.NewMoneyRequest(u.ID)
	mr.Title, mr.Amount, mr.Frequency, mr.Term = "Loan", model.MustMoney("10"), "WEEKLY", 3
	require.NoError(t, s.CreateMoneyRequest(ctx, mr))

	lent := model.NewMoneyRequest(lender.ID)
	lent.Title, lent.Amount, lent.Frequency, lent.Term = "Lent", model.MustMoney("5"), "MONTHLY", 1
	lent.LenderID = &u.ID
	require.NoError(t, s.CreateMoneyRequest(ctx, lent))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	accounts, err := s.ListAccountsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	requests, err := s.ListMoneyRequestsByBorrower(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)

	// 出借人被删除时，相关请求同样级联删除
	requests, err = s.ListMoneyRequestsByBorrower(ctx, lender.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

// ============================================================================
// Account 测试
// ============================================================================

func TestAccountCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "acc@example.com")

	first := model.NewAccount(u.ID, model.AccountTypeBorrower)
	require.NoError(t, s.CreateAccount(ctx, first))
	second := model.NewAccount(u.ID, model.AccountTypeLender)
	require.NoError(t, s.CreateAccount(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	got, err := s.GetAccountForUser(ctx, first.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.AccountTypeBorrower, got.Type)
	assert.Equal(t, "0.00", got.Balance.String())
	assert.Equal(t, u.ID, got.UserID)

	list, err := s.ListAccountsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAccount_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner@example.com")
	other := createUser(t, s, "other@example.com")

	acc := model.NewAccount(owner.ID, "")
	require.NoError(t, s.CreateAccount(ctx, acc))

	got, err := s.GetAccountForUser(ctx, acc.ID, other.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	list, err := s.ListAccountsByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ============================================================================
// MoneyRequest 测试
// ============================================================================

func newMoneyRequest(borrowerID int64, title string) *model.MoneyRequest {
	mr := model.NewMoneyRequest(borrowerID)
	mr.Title = title
	mr.Amount = model.MustMoney("777.77")
	mr.Frequency = "WEEKLY"
	mr.Term = 7
	return mr
}

func TestMoneyRequestCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	borrower := createUser(t, s, "borrower@example.com")
	lender := createUser(t, s, "lender@example.com")

	mr := newMoneyRequest(borrower.ID, "Test title")
	desc := "for a bike"
	mr.Description = &desc
	require.NoError(t, s.CreateMoneyRequest(ctx, mr))
	assert.NotZero(t, mr.ID)

	got, err := s.GetMoneyRequestForBorrower(ctx, mr.ID, borrower.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test title", got.Title)
	assert.Equal(t, "777.77", got.Amount.String())
	assert.Equal(t, "WEEKLY", got.Frequency)
	assert.Equal(t, 7, got.Term)
	require.NotNil(t, got.Description)
	assert.Equal(t, "for a bike", *got.Description)
	assert.Nil(t, got.LenderID)

	got.Title = "Updated"
	got.LenderID = &lender.ID
	require.NoError(t, s.UpdateMoneyRequest(ctx, got))

	updated, err := s.GetMoneyRequestForBorrower(ctx, mr.ID, borrower.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	require.NotNil(t, updated.LenderID)
	assert.Equal(t, lender.ID, *updated.LenderID)

	require.NoError(t, s.DeleteMoneyRequest(ctx, mr.ID, borrower.ID))
	gone, err := s.GetMoneyRequestForBorrower(ctx, mr.ID, borrower.ID)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMoneyRequest_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	borrower := createUser(t, s, "list@example.com")
	other := createUser(t, s, "other@example.com")

	a := newMoneyRequest(borrower.ID, "first")
	b := newMoneyRequest(borrower.ID, "second")
	c := newMoneyRequest(other.ID, "not mine")
	require.NoError(t, s.CreateMoneyRequest(ctx, a))
	require.NoError(t, s.CreateMoneyRequest(ctx, b))
	require.NoError(t, s.CreateMoneyRequest(ctx, c))

	list, err := s.ListMoneyRequestsByBorrower(ctx, borrower.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
}

func TestMoneyRequest_ScopedToBorrower(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	borrower := createUser(t, s, "b@example.com")
	intruder := createUser(t, s, "i@example.com")

	mr := newMoneyRequest(borrower.ID, "mine")
	require.NoError(t, s.CreateMoneyRequest(ctx, mr))

	got, err := s.GetMoneyRequestForBorrower(ctx, mr.ID, intruder.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// 以他人身份更新/删除均不命中
	hijack := *mr
	hijack.BorrowerID = intruder.ID
	hijack.Title = "stolen"
	assert.ErrorIs(t, s.UpdateMoneyRequest(ctx, &hijack), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMoneyRequest(ctx, mr.ID, intruder.ID), storage.ErrNotFound)

	still, err := s.GetMoneyRequestForBorrower(ctx, mr.ID, borrower.ID)
	require.NoError(t, err)
	require.NotNil(t, still)
	assert.Equal(t, "mine", still.Title)
}
