package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"lending-api/internal/shared/cache"
	"lending-api/internal/shared/model"
)

// UserLookup 中间件按 ID 查询用户
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/health",
	"/metrics",
	"/api/v1/openapi.yaml",
}

// 免认证路由精确匹配
var publicExact = map[string]bool{
	"POST /api/v1/user/create": true,
	"POST /api/v1/user/token":  true,
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return publicExact[method+" "+path]
}

// Middleware 创建 Bearer 令牌认证中间件
//
// 校验顺序：Authorization 头 → 签名与有效期 → 令牌类型 → 黑名单 → 用户存在且启用。
// 任一步失败均返回 401，业务逻辑不会执行。
func Middleware(cfg Config, users UserLookup, denylist cache.TokenDenylist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				unauthorized(w, "invalid authorization header")
				return
			}

			claims, err := ParseToken(cfg, strings.TrimSpace(parts[1]))
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.Type != TokenTypeAccess {
				unauthorized(w, "invalid token type")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			if claims.ID != "" {
				revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					log.Printf("[auth] denylist check error: %v", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if revoked {
					unauthorized(w, "token has been revoked")
					return
				}
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				log.Printf("[auth] GetUserByID error: %v", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil || !user.IsActive {
				unauthorized(w, "user inactive or deleted")
				return
			}

			authUser := &AuthUser{
				ID:      user.ID,
				Email:   user.Email,
				IsStaff: user.IsStaff,
				TokenID: claims.ID,
			}
			if claims.ExpiresAt != nil {
				authUser.ExpiresAt = claims.ExpiresAt.Time
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), authUser)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, message)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
