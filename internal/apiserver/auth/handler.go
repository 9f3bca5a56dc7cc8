package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"lending-api/internal/apiserver/payload"
	"lending-api/internal/shared/cache"
	"lending-api/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store    UserStore
	denylist cache.TokenDenylist
	cfg      Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, denylist cache.TokenDenylist, cfg Config) *Handler {
	return &Handler{store: store, denylist: denylist, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/user/token", h.Token)
	mux.HandleFunc("POST /api/v1/user/logout", h.Logout)
}

// MsgBadCredentials 登录失败（不区分用户不存在与密码错误）
const MsgBadCredentials = "Unable to authenticate with provided credentials."

var tokenPolicy = payload.Policy{
	Creatable: []string{"email", "password"},
	Required:  []string{"email", "password"},
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token 用邮箱和密码换取访问令牌
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	body, err := payload.Decode(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	body, errs := tokenPolicy.Filter(body, payload.ModeCreate)
	email, _ := body.Text("email", 255, false, errs)
	password, _ := body.Password("password", 0, errs)
	if !errs.Empty() {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), model.NormalizeEmail(email))
	if err != nil {
		log.Printf("[auth.token] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !user.IsActive || !user.CheckPassword(password) {
		errs.Add(payload.NonFieldErrors, MsgBadCredentials)
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}

	token, err := GenerateAccessToken(h.cfg, user.ID, user.Email)
	if err != nil {
		log.Printf("[auth.token] GenerateAccessToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.store.UpdateLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		log.Printf("[auth.token] UpdateLastLogin error: %v", err)
	}

	log.Printf("[auth] User logged in: %s (%d)", user.Email, user.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout 吊销当前请求所持令牌
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		unauthorized(w, "authentication credentials were not provided")
		return
	}
	if authUser.TokenID != "" {
		if err := h.denylist.Revoke(r.Context(), authUser.TokenID, authUser.ExpiresAt); err != nil {
			log.Printf("[auth.logout] Revoke error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	log.Printf("[auth] User logged out: %d", authUser.ID)
	w.WriteHeader(http.StatusNoContent)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var errs payload.Errors
	if errors.As(err, &errs) {
		writeJSON(w, http.StatusBadRequest, errs.Response())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保超级管理员存在（启动时调用）
// 未配置邮箱或密码时跳过；用户已存在时补齐 staff/superuser 标志
func EnsureAdminUser(ctx context.Context, store UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}
	adminEmail = model.NormalizeEmail(adminEmail)

	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		if !existing.IsStaff || !existing.IsSuperuser {
			log.Printf("[auth] Upgrading user %s to superuser", adminEmail)
			existing.IsStaff = true
			existing.IsSuperuser = true
			existing.UpdatedAt = time.Now().UTC()
			if err := store.UpdateUser(ctx, existing); err != nil {
				return fmt.Errorf("upgrade admin user: %w", err)
			}
		}
		log.Printf("[auth] Admin user already exists: %s (%d)", adminEmail, existing.ID)
		return nil
	}

	user, err := model.NewSuperuser(adminEmail, adminPassword, "Admin")
	if err != nil {
		return fmt.Errorf("build admin user: %w", err)
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%d)", adminEmail, user.ID)
	return nil
}
