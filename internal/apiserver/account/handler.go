// Package account 借贷账户 HTTP 处理器
//
// 账户只对所有者可见；类型与余额创建后不可修改，更新请求中的这些字段被静默丢弃。
// 账户不可删除。
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/payload"
	"lending-api/internal/shared/model"
)

// Store 账户存储接口
type Store interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountForUser(ctx context.Context, id, userID int64) (*model.Account, error)
	ListAccountsByUser(ctx context.Context, userID int64) ([]*model.Account, error)
}

// accountPolicy 只有 type 可在创建时写入；没有可更新字段
var accountPolicy = payload.Policy{
	Readable:  []string{"id", "user", "type", "balance"},
	Creatable: []string{"type"},
}

// Handler 账户处理器
type Handler struct {
	store Store
}

// NewHandler 创建账户处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/accounts", h.List)
	mux.HandleFunc("POST /api/v1/accounts", h.Create)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/accounts/{id}", h.Update)
	mux.HandleFunc("PATCH /api/v1/accounts/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", h.Delete)
}

// List 当前用户的账户，新建的在前
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return
	}

	accounts, err := h.store.ListAccountsByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("[account] ListAccountsByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Create 为当前用户创建账户；所有者强制为调用方，余额为 0.00
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return
	}

	body, ok := decode(w, r)
	if !ok {
		return
	}
	body, errs := accountPolicy.Filter(body, payload.ModeCreate)

	var accountType model.AccountType
	if s, ok := body.Text("type", 255, false, errs); ok {
		accountType = model.AccountType(s)
		if !accountType.Valid() {
			errs.Add("type", payload.InvalidChoiceMsg(s))
		}
	}
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	account := model.NewAccount(user.ID, accountType)
	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		log.Printf("[account] CreateAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	log.Printf("[account] Account created: %d (user=%d, type=%s)", account.ID, user.ID, account.Type)
	writeJSON(w, http.StatusCreated, account)
}

// Get 读取账户，非本人账户按不存在处理
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Update PUT/PATCH
//
// 账户没有可更新字段：type、balance 等受保护字段被丢弃后不写库，直接返回当前值。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, ok := decode(w, r)
	if !ok {
		return
	}
	if _, errs := accountPolicy.Filter(body, payload.ModeFor(r.Method)); !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Delete 账户不可删除
//
// 仍先按所有者查找：他人的账户返回 404，与读取保持一致。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.lookup(w, r); !ok {
		return
	}
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
}

// lookup 在调用方自己的账户中按 ID 查找
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Account, bool) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return nil, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}

	account, err := h.store.GetAccountForUser(r.Context(), id, user.ID)
	if err != nil {
		log.Printf("[account] GetAccountForUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return nil, false
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return account, true
}

// ============================================================================
// 工具函数
// ============================================================================

func decode(w http.ResponseWriter, r *http.Request) (payload.Body, bool) {
	body, err := payload.Decode(r)
	if err != nil {
		var errs payload.Errors
		if errors.As(err, &errs) {
			writeJSON(w, http.StatusBadRequest, errs.Response())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
