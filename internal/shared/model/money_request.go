package model

import "time"

// 文本字段最大长度
const MaxTitleLength = 255

// MoneyRequest 借款请求
//
// 借款人创建后不可变更；出借人可为空。
type MoneyRequest struct {
	ID          int64     `json:"id" bson:"_id" db:"id"`
	BorrowerID  int64     `json:"borrower" bson:"borrower_id" db:"borrower_id"`
	LenderID    *int64    `json:"lender" bson:"lender_id,omitempty" db:"lender_id"`
	Title       string    `json:"title" bson:"title" db:"title"`
	Description *string   `json:"description" bson:"description,omitempty" db:"description"`
	Amount      Money     `json:"amount" bson:"amount" db:"amount"`
	Frequency   string    `json:"frequency" bson:"frequency" db:"frequency"`
	Term        int       `json:"term" bson:"term" db:"term"`
	CreatedAt   time.Time `json:"-" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"-" bson:"updated_at" db:"updated_at"`
}

// NewMoneyRequest 以 borrowerID 作为借款人创建请求，出借人为空
func NewMoneyRequest(borrowerID int64) *MoneyRequest {
	now := time.Now().UTC()
	return &MoneyRequest{
		BorrowerID: borrowerID,
		Amount:     ZeroMoney(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
