package features

import "math"

const (
	zeroThreshold = 1e-10
	powerFloor    = 1e-10
	topDB         = 80.0
	onsetLag      = 1
)

// SpectralCentroid 逐帧计算幅度谱的频率加权平均值，再对所有帧取平均。
// 静音帧的质心记为 0。
func SpectralCentroid(spec *Spectrogram) float64 {
	if len(spec.Magnitudes) == 0 {
		return 0
	}

	total := 0.0
	for _, row := range spec.Magnitudes {
		weighted, sum := 0.0, 0.0
		for k, mag := range row {
			weighted += spec.BinFrequency(k) * mag
			sum += mag
		}
		if sum > 0 {
			total += weighted / sum
		}
	}
	return total / float64(len(spec.Magnitudes))
}

// RMSEnergy 逐帧均方根能量的平均值
func RMSEnergy(frames [][]float64) float64 {
	if len(frames) == 0 {
		return 0
	}

	total := 0.0
	for _, frame := range frames {
		sumSquares := 0.0
		for _, sample := range frame {
			sumSquares += sample * sample
		}
		total += math.Sqrt(sumSquares / float64(len(frame)))
	}
	return total / float64(len(frames))
}

// ZeroCrossingRate 逐帧过零次数除以帧长，再对所有帧取平均。
// 绝对值不超过 1e-10 的采样视为 0，0 计为正号。
func ZeroCrossingRate(frames [][]float64) float64 {
	if len(frames) == 0 {
		return 0
	}

	total := 0.0
	for _, frame := range frames {
		crossings := 0
		for i := 1; i < len(frame); i++ {
			if negative(frame[i]) != negative(frame[i-1]) {
				crossings++
			}
		}
		total += float64(crossings) / float64(len(frame))
	}
	return total / float64(len(frames))
}

func negative(sample float64) bool {
	return sample < -zeroThreshold
}

// OnsetEnvelope 计算起音强度包络：梅尔功率谱转 dB 后做一阶差分，
// 负值截断为 0，再对梅尔频带取平均。包络与频谱帧一一对齐。
func OnsetEnvelope(spec *Spectrogram, nMels int) []float64 {
	nFrames := len(spec.Magnitudes)
	env := make([]float64, nFrames)
	if nFrames == 0 {
		return env
	}

	filters := MelFilterBank(spec.SampleRate, spec.FrameSize, nMels)
	spans := filterSpans(filters)
	melDB := make([][]float64, nFrames)
	maxDB := math.Inf(-1)
	for t, row := range spec.Magnitudes {
		bands := make([]float64, nMels)
		for m, filter := range filters {
			energy := 0.0
			for k := spans[m][0]; k < spans[m][1]; k++ {
				energy += filter[k] * row[k] * row[k]
			}
			db := 10 * math.Log10(math.Max(powerFloor, energy))
			if db > maxDB {
				maxDB = db
			}
			bands[m] = db
		}
		melDB[t] = bands
	}

	floor := maxDB - topDB
	for _, bands := range melDB {
		for m, db := range bands {
			if db < floor {
				bands[m] = floor
			}
		}
	}

	// 居中分帧引入的延迟：前 lag + frameSize/(2*hop) 帧补零
	pad := onsetLag + spec.FrameSize/(2*spec.HopLength)
	for t := onsetLag; t < nFrames; t++ {
		out := t - onsetLag + pad
		if out >= nFrames {
			break
		}
		sum := 0.0
		for m := 0; m < nMels; m++ {
			if diff := melDB[t][m] - melDB[t-onsetLag][m]; diff > 0 {
				sum += diff
			}
		}
		env[out] = sum / float64(nMels)
	}
	return env
}

// filterSpans 每个滤波器非零权重所在的频点区间 [lo, hi)
func filterSpans(filters [][]float64) [][2]int {
	spans := make([][2]int, len(filters))
	for m, filter := range filters {
		lo, hi := 0, 0
		for k, w := range filter {
			if w == 0 {
				continue
			}
			if hi == 0 {
				lo = k
			}
			hi = k + 1
		}
		spans[m] = [2]int{lo, hi}
	}
	return spans
}

// OnsetStrength 起音强度包络的平均值
func OnsetStrength(env []float64) float64 {
	if len(env) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range env {
		sum += v
	}
	return sum / float64(len(env))
}
