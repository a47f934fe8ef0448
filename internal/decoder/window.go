package decoder

import (
	"fmt"
	"math"
	"time"

	"wakeup-checker/internal/types"
)

// ReadWindow 从已解码的文件中读取最多 maxDuration 的音频，
// 混缩为单声道，并在 targetRate > 0 时重采样。
func ReadWindow(file types.AudioFile, maxDuration time.Duration, targetRate int) (*types.AudioWindow, error) {
	sampleRate := file.GetSampleRate()
	if sampleRate <= 0 {
		return nil, fmt.Errorf("无效的采样率: %d", sampleRate)
	}

	maxFrames := 0
	if maxDuration > 0 {
		maxFrames = int(maxDuration.Seconds() * float64(sampleRate))
	}

	interleaved, err := file.ReadSamples(maxFrames)
	if err != nil {
		return nil, fmt.Errorf("读取音频数据失败: %w", err)
	}

	mono := Downmix(interleaved, file.GetChannels())
	if targetRate > 0 && targetRate != sampleRate {
		mono = Resample(mono, sampleRate, targetRate)
		sampleRate = targetRate
	}

	return &types.AudioWindow{
		Samples:    mono,
		SampleRate: sampleRate,
	}, nil
}

// Downmix 将交错排列的多声道采样取平均混缩为单声道
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Resample 线性插值重采样
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate <= 0 || toRate <= 0 || fromRate == toRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	n := int(math.Floor(float64(len(samples)) / ratio))
	out := make([]float64, n)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
