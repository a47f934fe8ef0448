package analyzer

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"wakeup-checker/internal/decoder"
	"wakeup-checker/internal/features"
	"wakeup-checker/internal/logging"
	"wakeup-checker/internal/scoring"
	"wakeup-checker/internal/types"
)

// DefaultMaxDuration 默认分析窗口长度
const DefaultMaxDuration = 60 * time.Second

// FailureKind 分析失败类别
type FailureKind string

const (
	DecodeError     FailureKind = "DecodeError"
	ExtractionError FailureKind = "ExtractionError"
)

// Failure 分析失败，Analyze 返回的错误总是 *Failure
type Failure struct {
	Kind FailureKind
	Path string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Kind, filepath.Base(f.Path), f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Analyzer 闹钟适用性分析器
type Analyzer struct {
	config          *types.AnalyzerConfig
	decoderRegistry *decoder.DecoderRegistry
	extractor       *features.Extractor
	scorer          *scoring.Scorer
	logger          *slog.Logger
	out             io.Writer
}

// Option 分析器可选配置
type Option func(*Analyzer)

// WithLogger 设置结构化日志
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithOutput 设置批量分析结果的输出位置
func WithOutput(w io.Writer) Option {
	return func(a *Analyzer) {
		if w != nil {
			a.out = w
		}
	}
}

// WithScorer 替换默认评分器
func WithScorer(scorer *scoring.Scorer) Option {
	return func(a *Analyzer) {
		if scorer != nil {
			a.scorer = scorer
		}
	}
}

// NewAnalyzer 创建新的分析器
func NewAnalyzer(config *types.AnalyzerConfig, opts ...Option) *Analyzer {
	if config == nil {
		config = &types.AnalyzerConfig{}
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = DefaultMaxDuration
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	a := &Analyzer{
		config:          config,
		decoderRegistry: decoder.NewDecoderRegistry(),
		scorer:          scoring.NewScorer(nil),
		logger:          logging.Discard(),
		out:             os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.extractor = features.NewExtractor(config.FrameSize, config.HopLength).WithLogger(a.logger)
	return a
}

// Registry 返回分析器使用的解码器注册表
func (a *Analyzer) Registry() *decoder.DecoderRegistry {
	return a.decoderRegistry
}

// Extractor 返回分析器使用的特征提取器
func (a *Analyzer) Extractor() *features.Extractor {
	return a.extractor
}

// analysis 单个文件的完整分析结果
type analysis struct {
	format   string
	metadata types.AudioMetadata
	report   *types.SuitabilityReport
}

// Analyze 解码文件的前 MaxDuration，提取特征并评分。
// 失败时返回 nil 报告和 *Failure，不会返回不完整的报告。
func (a *Analyzer) Analyze(filePath string) (*types.SuitabilityReport, error) {
	result, err := a.analyze(filePath)
	if err != nil {
		return nil, err
	}
	return result.report, nil
}

func (a *Analyzer) analyze(filePath string) (result *analysis, err error) {
	logger := a.logger.With(slog.String("file", filepath.Base(filePath)))
	stage := DecodeError

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = a.fail(logger, stage, filePath, fmt.Errorf("panic: %v", r))
		}
	}()

	// 解码音频文件
	logger.Info("decode start", slog.Duration("max_duration", a.config.MaxDuration))
	audioFile, err := a.decoderRegistry.DecodeFile(filePath)
	if err != nil {
		return nil, a.fail(logger, DecodeError, filePath, err)
	}
	defer audioFile.Close()

	window, err := decoder.ReadWindow(audioFile, a.config.MaxDuration, a.config.SampleRate)
	if err != nil {
		return nil, a.fail(logger, DecodeError, filePath, err)
	}
	logger.Info("decode complete",
		slog.Int("samples", len(window.Samples)),
		slog.Int("sample_rate", window.SampleRate),
		slog.Duration("duration", window.Duration()),
	)

	// 提取特征
	stage = ExtractionError
	fs, err := a.extractor.Extract(window)
	if err != nil {
		return nil, a.fail(logger, ExtractionError, filePath, err)
	}

	// 评分
	score, issues := a.scorer.Score(*fs)
	logger.Info("score computed", slog.Float64("score", score), slog.Any("issues", issues))

	return &analysis{
		format:   audioFile.GetFormat(),
		metadata: audioFile.GetMetadata(),
		report:   BuildReport(filePath, *fs, score, issues),
	}, nil
}

func (a *Analyzer) fail(logger *slog.Logger, kind FailureKind, filePath string, err error) *Failure {
	logger.Error("analysis failed", slog.String("kind", string(kind)), slog.Any("error", err))
	return &Failure{Kind: kind, Path: filePath, Err: err}
}

// BuildReport 按展示精度舍入特征并组装报告
func BuildReport(filePath string, fs types.FeatureSet, score float64, issues []types.IssueCode) *types.SuitabilityReport {
	return &types.SuitabilityReport{
		Filename:          filepath.Base(filePath),
		BPM:               round(fs.BPM, 2),
		SpectralCentroid:  round(fs.SpectralCentroid, 2),
		RMSEnergy:         round(fs.RMSEnergy, 4),
		ZCR:               round(fs.ZCR, 4),
		OnsetStrength:     round(fs.OnsetStrength, 4),
		SuitabilityScore:  score,
		SuitabilityIssues: issues,
	}
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
