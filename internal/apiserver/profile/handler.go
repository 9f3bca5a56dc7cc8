// Package profile 用户注册与当前用户资料
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/payload"
	"lending-api/internal/shared/model"
	"lending-api/internal/shared/storage"
)

// MsgEmailTaken 邮箱已被注册
const MsgEmailTaken = "user with this email already exists."

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// userPolicy 密码只写不读
var userPolicy = payload.Policy{
	Readable:  []string{"email", "name"},
	Creatable: []string{"email", "password", "name"},
	Updatable: []string{"email", "password", "name"},
	Required:  []string{"email", "password", "name"},
}

// userView 对外表示
type userView struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserView(u *model.User) userView {
	return userView{Email: u.Email, Name: u.Name}
}

// Handler 用户资料处理器
type Handler struct {
	store             UserStore
	minPasswordLength int
}

// NewHandler 创建处理器，minPasswordLength <= 0 时使用 model.MinPasswordLength
func NewHandler(store UserStore, minPasswordLength int) *Handler {
	if minPasswordLength <= 0 {
		minPasswordLength = model.MinPasswordLength
	}
	return &Handler{store: store, minPasswordLength: minPasswordLength}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/user/create", h.Create)
	mux.HandleFunc("/api/v1/user/create", methodNotAllowed)

	mux.HandleFunc("GET /api/v1/user/me", h.Retrieve)
	mux.HandleFunc("PUT /api/v1/user/me", h.Update)
	mux.HandleFunc("PATCH /api/v1/user/me", h.Update)
	mux.HandleFunc("/api/v1/user/me", methodNotAllowed)
}

// Create 注册新用户
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	body, errs := userPolicy.Filter(body, payload.ModeCreate)
	email, _ := body.Email("email", errs)
	password, _ := body.Password("password", h.minPasswordLength, errs)
	name, _ := body.Text("name", 255, false, errs)

	if errs.Empty() {
		h.checkEmailAvailable(r.Context(), email, 0, errs)
	}
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	user, err := model.NewUser(email, password, name)
	if err != nil {
		log.Printf("[profile.create] NewUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			errs.Add("email", MsgEmailTaken)
			writeJSON(w, http.StatusBadRequest, errs.Response())
			return
		}
		log.Printf("[profile.create] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	log.Printf("[profile] User registered: %s (%d)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, newUserView(user))
}

// Retrieve 当前用户资料
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// Update 更新当前用户资料（PUT 全量 / PATCH 部分）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	body, ok := decode(w, r)
	if !ok {
		return
	}
	body, errs := userPolicy.Filter(body, payload.ModeFor(r.Method))

	if email, ok := body.Email("email", errs); ok {
		if email != user.Email {
			h.checkEmailAvailable(r.Context(), email, user.ID, errs)
		}
		user.Email = email
	}
	if name, ok := body.Text("name", 255, false, errs); ok {
		user.Name = name
	}
	password, hasPassword := body.Password("password", h.minPasswordLength, errs)

	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	if hasPassword {
		if err := user.SetPassword(password); err != nil {
			log.Printf("[profile.update] SetPassword error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			errs.Add("email", MsgEmailTaken)
			writeJSON(w, http.StatusBadRequest, errs.Response())
			return
		}
		log.Printf("[profile.update] UpdateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, newUserView(user))
}

// currentUser 加载认证用户的完整记录
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return nil, false
	}
	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[profile] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return user, true
}

// checkEmailAvailable 邮箱被 selfID 以外的用户占用时记录字段错误
func (h *Handler) checkEmailAvailable(ctx context.Context, email string, selfID int64, errs payload.Errors) {
	existing, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		// 交给唯一约束兜底
		log.Printf("[profile] GetUserByEmail error: %v", err)
		return
	}
	if existing != nil && existing.ID != selfID {
		errs.Add("email", MsgEmailTaken)
	}
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

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
