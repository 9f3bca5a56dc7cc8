// Package testutil 测试共享基础设施
//
// 提供 SQLite 内存存储、测试用户和 JSON 请求辅助函数，供各 handler 包测试复用。
package testutil

import (
	"context"
	"testing"

	"lending-api/internal/shared/model"
	sqlitedriver "lending-api/internal/shared/storage/driver/sqlite"
	"lending-api/internal/shared/storage/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// FastPasswordHashing 测试中降低 bcrypt 成本
func FastPasswordHashing() {
	model.PasswordHashCost = bcrypt.MinCost
}

// NewStore 返回已建表的 SQLite 内存存储，测试结束时关闭
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

// UserCreator 创建用户的最小接口
type UserCreator interface {
	CreateUser(ctx context.Context, user *model.User) error
}

// CreateUser 创建并持久化测试用户
func CreateUser(t testing.TB, store UserCreator, email, password string) *model.User {
	t.Helper()
	u, err := model.NewUser(email, password, "Test Name")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}
