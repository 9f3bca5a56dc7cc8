// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包：
//   - auth: 令牌签发、注销与认证中间件
//   - profile: 注册与当前用户资料
//   - account: 借贷账户
//   - moneyrequest: 借款请求
//
// 中间件顺序（外→内）：指标 → 请求日志 → 认证 → OpenAPI 校验（可选）→ 路由
package server

import (
	"net/http"

	"lending-api/api"
	"lending-api/internal/apiserver/account"
	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/moneyrequest"
	"lending-api/internal/apiserver/openapi"
	"lending-api/internal/apiserver/profile"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 基础:
//   - GET    /health                    - 服务健康检查
//   - GET    /metrics                   - Prometheus 指标
//   - GET    /api/v1/openapi.yaml       - OpenAPI 文档
//
// 用户 (User):
//   - POST   /api/v1/user/create        - 注册
//   - POST   /api/v1/user/token         - 获取令牌
//   - POST   /api/v1/user/logout        - 注销当前令牌
//   - GET    /api/v1/user/me            - 当前用户资料
//   - PUT    /api/v1/user/me            - 全量更新资料
//   - PATCH  /api/v1/user/me            - 部分更新资料
//
// 账户 (Account):
//   - GET    /api/v1/accounts           - 列出本人账户
//   - POST   /api/v1/accounts           - 创建账户
//   - GET    /api/v1/accounts/{id}      - 账户详情
//   - PUT    /api/v1/accounts/{id}      - 更新（无可写字段）
//   - PATCH  /api/v1/accounts/{id}      - 更新（无可写字段）
//   - DELETE /api/v1/accounts/{id}      - 405
//
// 借款请求 (MoneyRequest):
//   - GET    /api/v1/moneyrequests      - 列出本人请求（摘要）
//   - POST   /api/v1/moneyrequests      - 创建请求
//   - GET    /api/v1/moneyrequests/{id} - 请求详情
//   - PUT    /api/v1/moneyrequests/{id} - 全量更新
//   - PATCH  /api/v1/moneyrequests/{id} - 部分更新
//   - DELETE /api/v1/moneyrequests/{id} - 删除
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler(h.gatherer))

	// OpenAPI 文档
	mux.HandleFunc("GET /api/v1/openapi.yaml", openapi.DocumentHandler(api.LendingSpec))

	// Auth 路由
	auth.NewHandler(h.store, h.denylist, h.authCfg).RegisterRoutes(mux)

	// 用户资料
	profile.NewHandler(h.store, h.authCfg.PasswordMinLength).RegisterRoutes(mux)

	// 账户
	account.NewHandler(h.store).RegisterRoutes(mux)

	// 借款请求
	moneyrequest.NewHandler(h.store, h.store).RegisterRoutes(mux)

	var handler http.Handler = mux
	if h.validator != nil {
		handler = h.validator.Middleware(handler)
	}
	handler = auth.Middleware(h.authCfg, h.store, h.denylist)(handler)
	handler = LoggingMiddleware(h.logger)(handler)
	return h.metrics.MetricsMiddleware(handler)
}
