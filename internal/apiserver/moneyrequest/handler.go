// Package moneyrequest 借款请求 HTTP 处理器
//
// 请求只对其借款人可见。借款人在创建时绑定为调用方，之后任何更新都不会改变它；
// 出借人可通过更新设置或清空。
package moneyrequest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/payload"
	"lending-api/internal/shared/model"
	"lending-api/internal/shared/storage"
)

// Store 借款请求存储接口
type Store interface {
	CreateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error
	GetMoneyRequestForBorrower(ctx context.Context, id, borrowerID int64) (*model.MoneyRequest, error)
	ListMoneyRequestsByBorrower(ctx context.Context, borrowerID int64) ([]*model.MoneyRequest, error)
	UpdateMoneyRequest(ctx context.Context, mr *model.MoneyRequest) error
	DeleteMoneyRequest(ctx context.Context, id, borrowerID int64) error
}

// UserLookup 校验出借人是否存在
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

var requestPolicy = payload.Policy{
	Readable:  detailFields,
	Creatable: []string{"title", "description", "amount", "frequency", "term"},
	Updatable: []string{"title", "description", "amount", "frequency", "term", "lender"},
	Required:  []string{"title", "amount", "frequency", "term"},
}

// Handler 借款请求处理器
type Handler struct {
	store Store
	users UserLookup
}

// NewHandler 创建借款请求处理器
func NewHandler(store Store, users UserLookup) *Handler {
	return &Handler{store: store, users: users}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/moneyrequests", h.List)
	mux.HandleFunc("POST /api/v1/moneyrequests", h.Create)
	mux.HandleFunc("GET /api/v1/moneyrequests/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/moneyrequests/{id}", h.Update)
	mux.HandleFunc("PATCH /api/v1/moneyrequests/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/moneyrequests/{id}", h.Delete)
}

// List 当前用户作为借款人的请求（摘要表示），新建的在前
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return
	}

	items, err := h.store.ListMoneyRequestsByBorrower(r.Context(), user.ID)
	if err != nil {
		log.Printf("[moneyrequest] ListMoneyRequestsByBorrower error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list money requests")
		return
	}
	writeJSON(w, http.StatusOK, summaries(items))
}

// Create 以调用方为借款人创建请求
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
	body, errs := requestPolicy.Filter(body, payload.ModeCreate)

	mr := model.NewMoneyRequest(user.ID)
	if err := h.apply(r.Context(), mr, body, errs); err != nil {
		log.Printf("[moneyrequest] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create money request")
		return
	}
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	if err := h.store.CreateMoneyRequest(r.Context(), mr); err != nil {
		log.Printf("[moneyrequest] CreateMoneyRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create money request")
		return
	}

	log.Printf("[moneyrequest] Money request created: %d (borrower=%d, amount=%s)", mr.ID, user.ID, mr.Amount)
	writeJSON(w, http.StatusCreated, detail(mr))
}

// Get 读取请求（详情表示），非本人请求按不存在处理
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mr, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail(mr))
}

// Update PUT/PATCH，请求体中的 borrower 被丢弃
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mr, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, ok := decode(w, r)
	if !ok {
		return
	}
	body, errs := requestPolicy.Filter(body, payload.ModeFor(r.Method))

	if err := h.apply(r.Context(), mr, body, errs); err != nil {
		log.Printf("[moneyrequest] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update money request")
		return
	}
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	mr.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateMoneyRequest(r.Context(), mr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		log.Printf("[moneyrequest] UpdateMoneyRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update money request")
		return
	}
	writeJSON(w, http.StatusOK, detail(mr))
}

// Delete 仅借款人可删除；他人的请求返回 404
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteMoneyRequest(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		log.Printf("[moneyrequest] DeleteMoneyRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete money request")
		return
	}

	log.Printf("[moneyrequest] Money request deleted: %d (borrower=%d)", id, user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// apply 将已过滤的字段写入 mr，校验失败记入 errs；只有存储错误才返回 error
func (h *Handler) apply(ctx context.Context, mr *model.MoneyRequest, body payload.Body, errs payload.Errors) error {
	if v, ok := body.Text("title", model.MaxTitleLength, false, errs); ok {
		mr.Title = v
	}
	if v, ok := body.NullableText("description", 0, errs); ok {
		mr.Description = v
	}
	if v, ok := body.Money("amount", errs); ok {
		mr.Amount = v
	}
	if v, ok := body.Text("frequency", 255, false, errs); ok {
		mr.Frequency = v
	}
	if v, ok := body.Int("term", errs); ok {
		mr.Term = v
	}
	if v, ok := body.RefID("lender", errs); ok {
		if v != nil {
			lender, err := h.users.GetUserByID(ctx, *v)
			if err != nil {
				return err
			}
			if lender == nil {
				errs.Add("lender", payload.InvalidPKMsg(*v))
				return nil
			}
		}
		mr.LenderID = v
	}
	return nil
}

// lookup 在调用方作为借款人的请求中按 ID 查找
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.MoneyRequest, bool) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return nil, false
	}
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}

	mr, err := h.store.GetMoneyRequestForBorrower(r.Context(), id, user.ID)
	if err != nil {
		log.Printf("[moneyrequest] GetMoneyRequestForBorrower error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get money request")
		return nil, false
	}
	if mr == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return mr, true
}

// ============================================================================
// 工具函数
// ============================================================================

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

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
