package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	tempoWindowSeconds = 8.0
	startBPM           = 120.0
	stdBPM             = 1.0 // 以八度为单位
	maxTempo           = 320.0
	// 自相关在对数压缩前的放大倍数
	tempogramGain = 1e6
)

// tempoWindow 自相关窗口长度（帧），向下取整
func tempoWindow(sampleRate, hopLength int) int {
	return int(math.Floor(tempoWindowSeconds * float64(sampleRate) / float64(hopLength)))
}

// EstimateTempo 根据起音包络的速度图估计速度。
// 每帧以汉宁窗截取 8 秒包络做自相关并按零时滞归一化，所有帧取平均，
// 再以 log1p 压缩后叠加以 120 BPM 为中心的对数正态先验，取最大值对应的时滞。
// 包络全零（例如静音）或过短时返回 0。
func EstimateTempo(env []float64, sampleRate, hopLength int) float64 {
	if len(env) < 2 {
		return 0
	}
	winLength := tempoWindow(sampleRate, hopLength)
	if winLength < 2 {
		return 0
	}

	tg := Tempogram(env, winLength)
	peak := 0.0
	for _, v := range tg {
		peak = math.Max(peak, v)
	}
	if peak <= 0 {
		return 0
	}

	framesPerMinute := 60.0 * float64(sampleRate) / float64(hopLength)
	bestLag, bestScore := 0, math.Inf(-1)
	for lag := 1; lag < winLength; lag++ {
		bpm := framesPerMinute / float64(lag)
		if bpm >= maxTempo {
			continue
		}
		octaves := (math.Log2(bpm) - math.Log2(startBPM)) / stdBPM
		score := math.Log1p(tempogramGain*math.Max(tg[lag], 0)) - 0.5*octaves*octaves
		if score > bestScore {
			bestLag, bestScore = lag, score
		}
	}

	if bestLag == 0 {
		return 0
	}
	return framesPerMinute / float64(bestLag)
}

// Tempogram 返回按帧平均的归一化局部自相关，长度为 winLength。
// 包络两端各补 winLength/2 个线性渐变到 0 的值，使每帧以对应包络点为中心。
func Tempogram(env []float64, winLength int) []float64 {
	mean := make([]float64, winLength)
	if len(env) == 0 || winLength <= 0 {
		return mean
	}

	padded := rampPad(env, winLength/2)
	hann := periodicHann(winLength)
	frame := make([]float64, winLength)

	for t := range env {
		for i := range frame {
			frame[i] = padded[t+i] * hann[i]
		}
		ac := autocorrelate(frame, winLength)
		norm := 0.0
		for _, v := range ac {
			norm = math.Max(norm, math.Abs(v))
		}
		if norm < math.SmallestNonzeroFloat64 {
			continue
		}
		for lag, v := range ac {
			mean[lag] += v / norm
		}
	}

	for lag := range mean {
		mean[lag] /= float64(len(env))
	}
	return mean
}

// rampPad 两端各补 width 个值，从端点值线性过渡到 0
func rampPad(env []float64, width int) []float64 {
	padded := make([]float64, len(env)+2*width)
	first, last := env[0], env[len(env)-1]
	for i := 0; i < width; i++ {
		padded[i] = first * float64(i) / float64(width)
		padded[width+len(env)+i] = last * float64(width-1-i) / float64(width)
	}
	copy(padded[width:], env)
	return padded
}

// autocorrelate 通过补零FFT计算前 maxLag 个时滞的自相关
func autocorrelate(x []float64, maxLag int) []float64 {
	n := 1
	for n < 2*len(x) {
		n <<= 1
	}

	padded := make([]float64, n)
	copy(padded, x)
	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		mag := cmplx.Abs(c)
		spectrum[i] = complex(mag*mag, 0)
	}
	inverse := fft.IFFT(spectrum)

	ac := make([]float64, maxLag)
	for lag := range ac {
		ac[lag] = real(inverse[lag])
	}
	return ac
}
