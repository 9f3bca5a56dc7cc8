package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"lending-api/api"
	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/openapi"
	"lending-api/internal/shared/cache"
	"lending-api/internal/shared/storage"
	"lending-api/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// Options 路由可选项
type Options struct {
	// ValidateRequests 按内嵌 OpenAPI 文档校验请求
	ValidateRequests bool

	// Registry 指标注册表，为 nil 时使用 Prometheus 默认注册表
	Registry *prometheus.Registry

	// Logger 请求日志，为 nil 时使用 logging.Default("api-server")
	Logger *logging.Logger
}

// Handler API 处理器
//
// 持有存储层、令牌黑名单与认证配置，负责组装路由与中间件。
type Handler struct {
	store    storage.PersistentStore
	denylist cache.TokenDenylist
	authCfg  auth.Config

	validator *openapi.Validator // nil 表示关闭请求校验
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	logger    *logging.Logger
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, denylist cache.TokenDenylist, authCfg auth.Config, opts Options) (*Handler, error) {
	h := &Handler{
		store:    store,
		denylist: denylist,
		authCfg:  authCfg,
		logger:   opts.Logger,
	}
	if h.logger == nil {
		h.logger = logging.Default("api-server")
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	h.gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		reg = opts.Registry
		h.gatherer = opts.Registry
	}
	h.metrics = NewMetrics("lending", reg)

	if opts.ValidateRequests {
		doc, err := openapi.Load(context.Background(), api.LendingSpec)
		if err != nil {
			return nil, err
		}
		v, err := openapi.NewValidator(doc)
		if err != nil {
			return nil, err
		}
		h.validator = v
		log.Printf("[Server] OpenAPI request validation enabled")
	}
	return h, nil
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 存储层可达时返回 {"status": "ok"}，否则 503。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.PingContext(ctx); err != nil {
		log.Printf("[Server] Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  fmt.Sprintf("database: %v", err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
