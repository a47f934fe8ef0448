package features

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"wakeup-checker/internal/types"
)

const (
	DefaultFrameSize = 2048
	DefaultHopLength = 512
	DefaultMelBands  = 128
)

var (
	ErrEmptyWindow       = errors.New("音频窗口为空")
	ErrInvalidSampleRate = errors.New("无效的采样率")
	ErrNonFiniteSample   = errors.New("音频包含非有限采样值")
)

// Extractor 从音频窗口中提取五个声学特征。
// 同一次 Extract 调用中所有逐帧特征使用相同的帧长和帧移。
type Extractor struct {
	frameSize int
	hopLength int
	melBands  int
	logger    *slog.Logger
}

// NewExtractor 创建特征提取器，非正的参数使用默认值
func NewExtractor(frameSize, hopLength int) *Extractor {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	if hopLength <= 0 {
		hopLength = DefaultHopLength
	}
	return &Extractor{
		frameSize: frameSize,
		hopLength: hopLength,
		melBands:  DefaultMelBands,
		logger:    slog.New(slog.DiscardHandler),
	}
}

// WithLogger 设置用于输出特征计算事件的日志
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// FrameSize 返回帧长
func (e *Extractor) FrameSize() int {
	return e.frameSize
}

// HopLength 返回帧移
func (e *Extractor) HopLength() int {
	return e.hopLength
}

// Extract 计算 BPM、频谱质心、RMS、过零率和起音强度
func (e *Extractor) Extract(w *types.AudioWindow) (*types.FeatureSet, error) {
	if err := validate(w); err != nil {
		return nil, err
	}

	frames := Frames(w.Samples, e.frameSize, e.hopLength)
	spec := STFT(frames, w.SampleRate, e.frameSize, e.hopLength)

	env := OnsetEnvelope(spec, e.melBands)
	fs := &types.FeatureSet{}

	fs.BPM = EstimateTempo(env, w.SampleRate, e.hopLength)
	e.computed("bpm", fs.BPM)

	fs.SpectralCentroid = SpectralCentroid(spec)
	e.computed("spectral_centroid", fs.SpectralCentroid)

	fs.RMSEnergy = RMSEnergy(frames)
	e.computed("rms_energy", fs.RMSEnergy)

	fs.ZCR = ZeroCrossingRate(frames)
	e.computed("zcr", fs.ZCR)

	fs.OnsetStrength = OnsetStrength(env)
	e.computed("onset_strength", fs.OnsetStrength)

	return fs, nil
}

func (e *Extractor) computed(name string, value float64) {
	e.logger.Debug("feature computed", slog.String("feature", name), slog.Float64("value", value))
}

func validate(w *types.AudioWindow) error {
	if w == nil || len(w.Samples) == 0 {
		return ErrEmptyWindow
	}
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, w.SampleRate)
	}
	for i, sample := range w.Samples {
		if math.IsNaN(sample) || math.IsInf(sample, 0) {
			return fmt.Errorf("%w: index %d", ErrNonFiniteSample, i)
		}
	}
	return nil
}
