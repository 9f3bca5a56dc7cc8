// Package model 定义核心数据模型
//
// account.go 包含账户相关的数据模型定义：
//   - Account：用户的借贷账户
//   - AccountType：账户类型枚举
package model

import "time"

// ============================================================================
// AccountType - 账户类型
// ============================================================================

// AccountType 账户类型
type AccountType string

const (
	// AccountTypeBorrower 借款人
	AccountTypeBorrower AccountType = "BORROWER"

	// AccountTypeLender 出借人
	AccountTypeLender AccountType = "LENDER"
)

// Valid 是否为合法的账户类型
func (t AccountType) Valid() bool {
	return t == AccountTypeBorrower || t == AccountTypeLender
}

// ============================================================================
// Account - 借贷账户
// ============================================================================

// Account 用户的借贷账户
//
// 类型创建后不可修改，余额不可由调用方设置；用户删除时级联删除。
type Account struct {
	ID        int64       `json:"id" bson:"_id" db:"id"`
	UserID    int64       `json:"user" bson:"user_id" db:"user_id"`
	Type      AccountType `json:"type" bson:"type" db:"type"`
	Balance   Money       `json:"balance" bson:"balance" db:"balance"`
	CreatedAt time.Time   `json:"-" bson:"created_at" db:"created_at"`
}

// NewAccount 为用户创建账户，类型为空时默认 BORROWER，余额为 0.00
func NewAccount(userID int64, accountType AccountType) *Account {
	if accountType == "" {
		accountType = AccountTypeBorrower
	}
	return &Account{
		UserID:    userID,
		Type:      accountType,
		Balance:   ZeroMoney(),
		CreatedAt: time.Now().UTC(),
	}
}
