// Package openapi 基于内嵌 OpenAPI 文档的请求校验中间件
//
// 文档中没有描述的路径和方法原样放行，由路由层返回 404/405。
// 请求体的结构性错误在这里拦截，字段语义（唯一性、关联对象存在性、只读字段丢弃）
// 仍由各 Handler 负责。
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"lending-api/internal/apiserver/payload"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// Load 解析并校验 OpenAPI 文档
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// Validator 请求校验器
type Validator struct {
	router routers.Router
}

// NewValidator 创建请求校验器
func NewValidator(doc *openapi3.T) (*Validator, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Middleware 校验请求参数与请求体
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}

		err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc:         openapi3filter.NoopAuthenticationFunc,
				ExcludeReadOnlyValidations: true,
				SkipSettingDefaults:        true,
				MultiError:                 true,
			},
		})
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		errs := payload.Errors{}
		if !collect(err, errs) {
			log.Printf("[openapi] Rejected %s %s: %v", r.Method, r.URL.Path, err)
			writeError(w, http.StatusBadRequest, payload.ErrMalformed.Error())
			return
		}
		writeJSON(w, http.StatusBadRequest, errs.Response())
	})
}

// collect 将 schema 错误转换为字段错误；遇到无法归属到字段的错误时返回 false
func collect(err error, errs payload.Errors) bool {
	switch e := err.(type) {
	case openapi3.MultiError:
		ok := len(e) > 0
		for _, inner := range e {
			if !collect(inner, errs) {
				ok = false
			}
		}
		return ok
	case *openapi3filter.RequestError:
		if e.Err == nil {
			return false
		}
		return collect(e.Err, errs)
	case *openapi3.SchemaError:
		path := e.JSONPointer()
		key := payload.NonFieldErrors
		if len(path) > 0 {
			key = strings.Join(path, ".")
		}
		errs.Add(key, message(e, len(path) == 0))
		return true
	}
	return false
}

// message 与 Handler 字段校验使用相同的措辞
func message(e *openapi3.SchemaError, root bool) string {
	if root {
		return payload.NotObjectMsg(payload.TypeName(e.Value))
	}
	if e.Value == nil {
		return payload.MsgNull
	}

	switch e.SchemaField {
	case "nullable":
		return payload.MsgNull
	case "enum":
		return payload.InvalidChoiceMsg(fmt.Sprint(e.Value))
	case "maxLength":
		if e.Schema.MaxLength != nil {
			return payload.MaxLengthMsg(int(*e.Schema.MaxLength))
		}
	case "minLength":
		return payload.MinLengthMsg(int(e.Schema.MinLength))
	case "required":
		return payload.MsgRequired
	case "type":
		switch {
		case e.Schema.Type.Is(openapi3.TypeString):
			return payload.MsgInvalidString
		case e.Schema.Type.Is(openapi3.TypeInteger):
			return payload.MsgInvalidInt
		case e.Schema.Type.Is(openapi3.TypeNumber):
			return payload.MsgInvalidNumber
		}
	}
	return e.Reason
}

// DocumentHandler 返回内嵌的 OpenAPI 文档
func DocumentHandler(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
