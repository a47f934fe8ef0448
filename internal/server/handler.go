package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"wakeup-checker/internal/logging"
	"wakeup-checker/internal/recommend"
	"wakeup-checker/internal/types"
)

// Analyzer HTTP 层依赖的分析能力
type Analyzer interface {
	Analyze(filePath string) (*types.SuitabilityReport, error)
}

// Options 请求限制与 CORS 配置
type Options struct {
	MaxUploadBytes  int64
	DownloadTimeout time.Duration
	AllowedOrigins  []string
	TempDir         string
	Client          *http.Client
	Logger          *slog.Logger
}

// Handler 分析服务的 HTTP 接口
type Handler struct {
	analyzer    Analyzer
	recommender *recommend.Recommender
	router      *http.ServeMux
	opts        Options
	client      *http.Client
	logger      *slog.Logger
}

// NewHandler 创建 HTTP 处理器并注册路由
func NewHandler(analyzer Analyzer, recommender *recommend.Recommender, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 30 * time.Second
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if recommender == nil {
		recommender = recommend.NewRecommender(nil)
	}

	h := &Handler{
		analyzer:    analyzer,
		recommender: recommender,
		router:      http.NewServeMux(),
		opts:        opts,
		client:      opts.Client,
		logger:      opts.Logger,
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: opts.DownloadTimeout}
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}

	h.routes()

	return h
}

// ServeHTTP 设置 CORS 响应头后交给路由处理。
// 显式列出的来源回显并允许携带凭据，通配符 "*" 只返回 "*"。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := false
	switch {
	case origin == "":
	case slices.Contains(h.opts.AllowedOrigins, origin):
		allowed = true
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
	case slices.Contains(h.opts.AllowedOrigins, "*"):
		allowed = true
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	if allowed && r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /{$}", h.Root)
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("POST /analyze", h.AnalyzeUpload)
	h.router.HandleFunc("POST /analyze-url", h.AnalyzeURL)
	h.router.HandleFunc("GET /recommend", h.Recommend)
}

// Root 返回服务运行提示
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Wake-up checker API is running"})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommend 处理 GET /recommend?genre=
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recommender.Recommend(r.URL.Query().Get("genre")))
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func isJSONContentType(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}
