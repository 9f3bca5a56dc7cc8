package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// 金额字段精度：共 10 位，其中小数 2 位
const (
	MoneyMaxDigits     = 10
	MoneyDecimalPlaces = 2
)

var moneyIntegerLimit = decimal.New(1, MoneyMaxDigits-MoneyDecimalPlaces)

// Money 定点金额
//
// JSON 输出固定两位小数的字符串（如 "0.00"），输入接受字符串或数字。
type Money struct {
	decimal.Decimal
}

// ZeroMoney 返回 0.00
func ZeroMoney() Money {
	return Money{decimal.Zero}
}

// ParseMoney 从字符串解析金额
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// MustMoney 解析金额，失败时 panic（仅用于常量和测试）
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String 固定两位小数
func (m Money) String() string {
	return m.StringFixed(MoneyDecimalPlaces)
}

// Validate 校验精度，返回的消息可直接作为字段错误
func (m Money) Validate() error {
	if !m.Equal(m.Round(MoneyDecimalPlaces)) {
		return fmt.Errorf("Ensure that there are no more than %d decimal places.", MoneyDecimalPlaces)
	}
	if !m.Abs().LessThan(moneyIntegerLimit) {
		return fmt.Errorf("Ensure that there are no more than %d digits before the decimal point.", MoneyMaxDigits-MoneyDecimalPlaces)
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Value 实现 driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan 实现 sql.Scanner
func (m *Money) Scan(value interface{}) error {
	return m.Decimal.Scan(value)
}

// MarshalBSONValue MongoDB 中以字符串保存，避免浮点误差
func (m Money) MarshalBSONValue() (byte, []byte, error) {
	t, data, err := bson.MarshalValue(m.String())
	return byte(t), data, err
}

func (m *Money) UnmarshalBSONValue(t byte, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(bson.Type(t), data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}
