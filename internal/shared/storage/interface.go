// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（SQL）、mongostore/（MongoDB）
//   - 初始化时通过依赖注入传入实现（见 infra.OpenStore）
//
// 约定：
//   - Get* 查询不到时返回 (nil, nil)
//   - 带归属条件的写操作未命中时返回 ErrNotFound
//   - 唯一约束冲突返回 ErrDuplicate
package storage

import (
	"context"
	"time"

	"lending-api/internal/shared/model"
)

// UserStore 用户存储
type UserStore interface {
	// CreateUser 插入用户并回填 ID
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser 更新邮箱、姓名、密码哈希和状态标志
	UpdateUser(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// DeleteUser 删除用户，其账户和借款请求级联删除
	DeleteUser(ctx context.Context, id int64) error
}

// AccountStore 账户存储
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	// GetAccountForUser 仅在账户属于 userID 时返回
	GetAccountForUser(ctx context.Context, id, userID int64) (*model.Account, error)
	// ListAccountsByUser 按 ID 倒序
	ListAccountsByUser(ctx context.Context, userID int64) ([]*model.Account, error)
}

// MoneyRequestStore 借款请求存储
type MoneyRequestStore interface {
	CreateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error
	// GetMoneyRequestForBorrower 仅在请求的借款人为 borrowerID 时返回
	GetMoneyRequestForBorrower(ctx context.Context, id, borrowerID int64) (*model.MoneyRequest, error)
	// ListMoneyRequestsByBorrower 按 ID 倒序
	ListMoneyRequestsByBorrower(ctx context.Context, borrowerID int64) ([]*model.MoneyRequest, error)
	// UpdateMoneyRequest 按 (id, borrower) 更新，借款人本身永不修改
	UpdateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error
	DeleteMoneyRequest(ctx context.Context, id, borrowerID int64) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	AccountStore
	MoneyRequestStore

	// PingContext 探活（dbutil.WaitForDB 使用）
	PingContext(ctx context.Context) error
	Close() error
}
