package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wakeup-checker/internal/logging"
	"wakeup-checker/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Analysis 特征提取与评分配置
type Analysis struct {
	MaxDurationSeconds int     `toml:"max_duration_seconds"`
	SampleRate         int     `toml:"sample_rate"`
	FrameSize          int     `toml:"frame_size"`
	HopLength          int     `toml:"hop_length"`
	SuitableScore      float64 `toml:"suitable_score"`
}

// Batch 批量分析配置
type Batch struct {
	Concurrency int `toml:"concurrency"`
}

// Server HTTP 服务配置
type Server struct {
	Bind                   string   `toml:"bind"`
	DownloadTimeoutSeconds int      `toml:"download_timeout_seconds"`
	MaxUploadMB            int      `toml:"max_upload_mb"`
	AllowedOrigins         []string `toml:"allowed_origins"`
}

// Logging 日志输出配置
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config 全部配置项
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Batch    Batch    `toml:"batch"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath 返回默认配置文件的绝对路径
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wakeup-checker/config.toml")
}

// Load 定位、解析并校验配置文件。
// 文件不存在不算错误，此时返回默认值且 exists 为 false。
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("打开配置文件失败: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("读取配置文件信息失败: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wakeup-checker.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() {
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = runtime.NumCPU()
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Analysis.MaxDurationSeconds <= 0 {
		return errors.New("analysis.max_duration_seconds 必须为正数")
	}
	if c.Analysis.SampleRate < 0 {
		return errors.New("analysis.sample_rate 不能为负数")
	}
	if c.Analysis.FrameSize <= 0 || c.Analysis.FrameSize&(c.Analysis.FrameSize-1) != 0 {
		return fmt.Errorf("analysis.frame_size 必须是 2 的正整数次幂，当前为 %d", c.Analysis.FrameSize)
	}
	if c.Analysis.HopLength <= 0 || c.Analysis.HopLength > c.Analysis.FrameSize {
		return fmt.Errorf("analysis.hop_length 必须在 (0, frame_size] 范围内，当前为 %d", c.Analysis.HopLength)
	}
	if c.Analysis.SuitableScore < 0 || c.Analysis.SuitableScore > 10 {
		return fmt.Errorf("analysis.suitable_score 必须在 [0, 10] 范围内，当前为 %v", c.Analysis.SuitableScore)
	}
	if c.Server.Bind == "" {
		return errors.New("server.bind 不能为空")
	}
	if c.Server.DownloadTimeoutSeconds <= 0 {
		return errors.New("server.download_timeout_seconds 必须为正数")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb 必须为正数")
	}
	if _, err := logging.New(logging.Options{Level: c.Logging.Level, Format: c.Logging.Format}); err != nil {
		return err
	}
	return nil
}

// AnalyzerConfig 将 analysis 与 batch 配置转换为分析器配置
func (c *Config) AnalyzerConfig() *types.AnalyzerConfig {
	return &types.AnalyzerConfig{
		MaxDuration:   time.Duration(c.Analysis.MaxDurationSeconds) * time.Second,
		SampleRate:    c.Analysis.SampleRate,
		FrameSize:     c.Analysis.FrameSize,
		HopLength:     c.Analysis.HopLength,
		SuitableScore: c.Analysis.SuitableScore,
		Concurrency:   c.Batch.Concurrency,
	}
}

// DownloadTimeout 返回 URL 下载超时
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Server.DownloadTimeoutSeconds) * time.Second
}

// MaxUploadBytes 返回上传大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("获取用户主目录失败: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("解析绝对路径失败 %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath 展开 ~ 并转换为绝对路径
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample 在指定位置写入示例配置
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("写入示例配置失败: %w", err)
	}
	return nil
}
