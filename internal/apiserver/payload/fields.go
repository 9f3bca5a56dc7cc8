package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"lending-api/internal/shared/model"

	"github.com/shopspring/decimal"
)

// MaxLengthMsg 超长错误消息
func MaxLengthMsg(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// MinLengthMsg 过短错误消息
func MinLengthMsg(n int) string {
	return fmt.Sprintf("Ensure this field has at least %d characters.", n)
}

// InvalidChoiceMsg 枚举值非法
func InvalidChoiceMsg(v string) string {
	return fmt.Sprintf("%q is not a valid choice.", v)
}

// InvalidPKMsg 关联对象不存在
func InvalidPKMsg(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

// decodeValue 以 json.Number 保留数字原文
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// TypeName 解码后 JSON 值的类型名，用于错误消息
func TypeName(v any) string {
	switch t := v.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return "float"
		}
		return "int"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	default:
		return "NoneType"
	}
}

// Text 读取字符串字段（去除首尾空白）
//
// ok 为 false 表示字段缺失或校验失败，失败原因已写入 errs。
// maxLen <= 0 表示不限长度。
func (b Body) Text(key string, maxLen int, allowBlank bool, errs Errors) (string, bool) {
	raw, present := b[key]
	if !present {
		return "", false
	}
	v, err := decodeValue(raw)
	if err != nil {
		errs.Add(key, MsgInvalidString)
		return "", false
	}

	var s string
	switch t := v.(type) {
	case nil:
		errs.Add(key, MsgNull)
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	default:
		errs.Add(key, MsgInvalidString)
		return "", false
	}

	s = strings.TrimSpace(s)
	if s == "" && !allowBlank {
		errs.Add(key, MsgBlank)
		return "", false
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		errs.Add(key, MaxLengthMsg(maxLen))
		return "", false
	}
	return s, true
}

// NullableText 读取可为 null、可为空串的字符串字段
func (b Body) NullableText(key string, maxLen int, errs Errors) (*string, bool) {
	raw, present := b[key]
	if !present {
		return nil, false
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, true
	}
	s, ok := b.Text(key, maxLen, true, errs)
	if !ok {
		return nil, false
	}
	return &s, true
}

// Password 读取密码字段：不去除空白，校验最小长度
func (b Body) Password(key string, minLen int, errs Errors) (string, bool) {
	raw, present := b[key]
	if !present {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		if string(bytes.TrimSpace(raw)) == "null" {
			errs.Add(key, MsgNull)
		} else {
			errs.Add(key, MsgInvalidString)
		}
		return "", false
	}
	if s == "" {
		errs.Add(key, MsgBlank)
		return "", false
	}
	if utf8.RuneCountInString(s) < minLen {
		errs.Add(key, MinLengthMsg(minLen))
		return "", false
	}
	return s, true
}

// Email 读取并校验邮箱字段，返回规范化后的值
func (b Body) Email(key string, errs Errors) (string, bool) {
	s, ok := b.Text(key, 255, false, errs)
	if !ok {
		return "", false
	}
	if !model.IsValidEmail(s) {
		errs.Add(key, MsgInvalidEmail)
		return "", false
	}
	return model.NormalizeEmail(s), true
}

// Int 读取 32 位整数字段，接受整数、整数值的浮点数和数字字符串
func (b Body) Int(key string, errs Errors) (int, bool) {
	raw, present := b[key]
	if !present {
		return 0, false
	}
	v, err := decodeValue(raw)
	if err != nil {
		errs.Add(key, MsgInvalidInt)
		return 0, false
	}

	var n int64
	switch t := v.(type) {
	case nil:
		errs.Add(key, MsgNull)
		return 0, false
	case json.Number:
		i, ok := integral(t.String())
		if !ok {
			errs.Add(key, MsgInvalidInt)
			return 0, false
		}
		n = i
	case string:
		i, ok := integral(strings.TrimSpace(t))
		if !ok {
			errs.Add(key, MsgInvalidInt)
			return 0, false
		}
		n = i
	default:
		errs.Add(key, MsgInvalidInt)
		return 0, false
	}

	if n > maxInt {
		errs.Add(key, fmt.Sprintf("Ensure this value is less than or equal to %d.", maxInt))
		return 0, false
	}
	if n < minInt {
		errs.Add(key, fmt.Sprintf("Ensure this value is greater than or equal to %d.", minInt))
		return 0, false
	}
	return int(n), true
}

// integral 解析整数，允许 "7.0" 这类小数部分为零的写法
func integral(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Money 读取金额字段，接受字符串或数字，校验精度
func (b Body) Money(key string, errs Errors) (model.Money, bool) {
	raw, present := b[key]
	if !present {
		return model.Money{}, false
	}
	v, err := decodeValue(raw)
	if err != nil {
		errs.Add(key, MsgInvalidNumber)
		return model.Money{}, false
	}

	var s string
	switch t := v.(type) {
	case nil:
		errs.Add(key, MsgNull)
		return model.Money{}, false
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		errs.Add(key, MsgInvalidNumber)
		return model.Money{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		errs.Add(key, MsgInvalidNumber)
		return model.Money{}, false
	}
	m := model.Money{Decimal: d}
	if err := m.Validate(); err != nil {
		errs.Add(key, err.Error())
		return model.Money{}, false
	}
	return m, true
}

// RefID 读取可为 null 的关联主键；存在性由调用方校验
func (b Body) RefID(key string, errs Errors) (*int64, bool) {
	raw, present := b[key]
	if !present {
		return nil, false
	}
	v, err := decodeValue(raw)
	if err != nil {
		errs.Add(key, MsgInvalidInt)
		return nil, false
	}

	var s string
	switch t := v.(type) {
	case nil:
		return nil, true
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		errs.Add(key, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", TypeName(v)))
		return nil, false
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		errs.Add(key, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", TypeName(v)))
		return nil, false
	}
	return &id, true
}
