package moneyrequest

import (
	"bytes"
	"encoding/json"

	"lending-api/internal/shared/model"
)

// fieldTable 字段名 → 取值规则，两种表示共用
var fieldTable = map[string]func(*model.MoneyRequest) any{
	"id":          func(mr *model.MoneyRequest) any { return mr.ID },
	"title":       func(mr *model.MoneyRequest) any { return mr.Title },
	"amount":      func(mr *model.MoneyRequest) any { return mr.Amount },
	"frequency":   func(mr *model.MoneyRequest) any { return mr.Frequency },
	"term":        func(mr *model.MoneyRequest) any { return mr.Term },
	"borrower":    func(mr *model.MoneyRequest) any { return mr.BorrowerID },
	"lender":      func(mr *model.MoneyRequest) any { return mr.LenderID },
	"description": func(mr *model.MoneyRequest) any { return mr.Description },
}

var (
	// summaryFields 列表使用
	summaryFields = []string{"id", "title", "amount", "frequency", "term"}

	// detailFields 单条读取、创建、更新使用
	detailFields = []string{"id", "title", "amount", "frequency", "term", "borrower", "lender", "description"}
)

// projection 按字段顺序输出的 JSON 对象
type projection struct {
	fields []string
	mr     *model.MoneyRequest
}

func summary(mr *model.MoneyRequest) projection {
	return projection{fields: summaryFields, mr: mr}
}

func detail(mr *model.MoneyRequest) projection {
	return projection{fields: detailFields, mr: mr}
}

func summaries(items []*model.MoneyRequest) []projection {
	out := make([]projection, 0, len(items))
	for _, mr := range items {
		out = append(out, summary(mr))
	}
	return out
}

func (p projection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(fieldTable[name](p.mr))
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
