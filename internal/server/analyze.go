package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxMemoryBytes      = 32 << 20
	defaultUploadName   = "upload.mp3"
	defaultDownloadName = "downloaded_audio.mp3"
)

var errTooLarge = errors.New("file exceeds upload limit")

type analyzeURLRequest struct {
	URL string `json:"url"`
}

// AnalyzeUpload 处理 POST /analyze，文件位于 multipart 的 "file" 字段
func (h *Handler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, errTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	h.analyzeStream(w, logger, sanitizeFilename(header.Filename, defaultUploadName), file, "Analysis failed")
}

// AnalyzeURL 处理 POST /analyze-url，先下载再分析
func (h *Handler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req analyzeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.DownloadTimeout)
	defer cancel()

	logger.Info("download start", slog.String("url", target.String()))
	body, err := h.download(ctx, target.String())
	if err != nil {
		logger.Warn("download failed", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to download file: %v", err))
		return
	}
	defer body.Close()

	name := sanitizeFilename(path.Base(target.Path), defaultDownloadName)
	h.analyzeStream(w, logger, name, body, "Analysis failed. The file might not be a valid audio file.")
}

func (h *Handler) download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// analyzeStream 将数据写入本次请求独立的临时目录，分析后删除该目录
func (h *Handler) analyzeStream(w http.ResponseWriter, logger *slog.Logger, name string, src io.Reader, failureDetail string) {
	dir := filepath.Join(h.opts.TempDir, "wakeup-checker-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logger.Error("create temp dir failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "could not store file")
		return
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, name)
	if err := h.store(target, src); err != nil {
		if errors.Is(err, errTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		logger.Error("store file failed", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read file: %v", err))
		return
	}

	report, err := h.analyzer.Analyze(target)
	if err != nil || report == nil {
		logger.Warn("analysis failed", slog.String("file", name), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, failureDetail)
		return
	}

	logger.Info("analysis complete", slog.String("file", name), slog.Float64("score", report.SuitabilityScore))
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) store(target string, src io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(src, h.opts.MaxUploadBytes+1))
	if err != nil {
		return err
	}
	if n > h.opts.MaxUploadBytes {
		return errTooLarge
	}
	return out.Close()
}

// sanitizeFilename 只保留文件名中的字母、数字以及 . _ -
func sanitizeFilename(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if r < 0x80 && (r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}
