// Package payload 请求体解析与字段级校验
//
// 每类资源声明一份 Policy（可读 / 可创建 / 可更新 / 必填字段）。写入前先经过
// Policy.Filter：未知字段报错，已知但当前模式不可写的字段（如余额、借款人）直接丢弃，
// 不报错。之后由各 Handler 通过 Body 的类型化读取方法逐字段校验。
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strings"
)

// 字段错误消息
const (
	MsgRequired      = "This field is required."
	MsgNull          = "This field may not be null."
	MsgBlank         = "This field may not be blank."
	MsgUnknown       = "Unknown field."
	MsgInvalidString = "Not a valid string."
	MsgInvalidInt    = "A valid integer is required."
	MsgInvalidNumber = "A valid number is required."
	MsgInvalidEmail  = "Enter a valid email address."
)

// NonFieldErrors 与具体字段无关的错误键
const NonFieldErrors = "non_field_errors"

// 整数字段取值范围（32 位有符号）
const (
	maxInt = 2147483647
	minInt = -2147483648
)

// ErrMalformed 请求体不是合法 JSON
var ErrMalformed = errors.New("invalid request body")

// Mode 写入模式
type Mode int

const (
	ModeCreate  Mode = iota // POST
	ModeReplace             // PUT：必填字段必须全部提供
	ModePartial             // PATCH：只校验提交的字段
)

// ModeFor 按 HTTP 方法返回写入模式
func ModeFor(method string) Mode {
	switch method {
	case http.MethodPost:
		return ModeCreate
	case http.MethodPut:
		return ModeReplace
	default:
		return ModePartial
	}
}

// Errors 字段级错误，键为字段名
type Errors map[string][]string

// Add 追加一条字段错误
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Empty 是否没有错误
func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Response 400 响应体
func (e Errors) Response() map[string]any {
	return map[string]any{
		"error":  "validation failed",
		"fields": e,
	}
}

// Body 原始请求体，按字段延迟解析
type Body map[string]json.RawMessage

// Decode 读取 JSON 对象请求体，空请求体视为 {}
//
// 非法 JSON 返回 ErrMalformed；合法 JSON 但不是对象时返回 Errors。
func Decode(r *http.Request) (Body, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, ErrMalformed
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Body{}, nil
	}
	if !json.Valid(data) {
		return nil, ErrMalformed
	}
	if data[0] != '{' {
		v, _ := decodeValue(data)
		errs := Errors{}
		errs.Add(NonFieldErrors, NotObjectMsg(TypeName(v)))
		return nil, errs
	}
	var body Body
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, ErrMalformed
	}
	if body == nil {
		body = Body{}
	}
	return body, nil
}

// NotObjectMsg 请求体不是 JSON 对象
func NotObjectMsg(kind string) string {
	return "Invalid data. Expected a dictionary, but got " + kind + "."
}

// Has 字段是否出现在请求体中（包括显式 null）
func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Keys 排序后的字段名
func (b Body) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Policy 资源的字段访问策略
type Policy struct {
	Readable  []string // 出现在响应中的字段
	Creatable []string // POST 可写字段
	Updatable []string // PUT/PATCH 可写字段
	Required  []string // POST/PUT 必填字段
}

// known 字段是否属于资源表示
func (p Policy) known(key string) bool {
	return slices.Contains(p.Readable, key) ||
		slices.Contains(p.Creatable, key) ||
		slices.Contains(p.Updatable, key)
}

func (p Policy) writable(mode Mode) []string {
	if mode == ModeCreate {
		return p.Creatable
	}
	return p.Updatable
}

// Filter 按写入模式过滤请求体
//
// 未知字段记为错误；已知但不可写的字段静默丢弃；
// ModeCreate/ModeReplace 下缺失的可写必填字段记为错误。
func (p Policy) Filter(body Body, mode Mode) (Body, Errors) {
	errs := Errors{}
	writable := p.writable(mode)
	out := make(Body, len(body))

	for _, key := range body.Keys() {
		switch {
		case slices.Contains(writable, key):
			out[key] = body[key]
		case p.known(key):
			// 受保护字段：忽略
		default:
			errs.Add(key, MsgUnknown)
		}
	}

	if mode != ModePartial {
		for _, key := range p.Required {
			if slices.Contains(writable, key) && !out.Has(key) {
				errs.Add(key, MsgRequired)
			}
		}
	}

	return out, errs
}
