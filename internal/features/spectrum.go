package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrogram 短时傅里叶变换的幅度谱，按帧存储，每帧 FrameSize/2+1 个频点
type Spectrogram struct {
	Magnitudes [][]float64
	SampleRate int
	FrameSize  int
	HopLength  int
}

// BinFrequency 返回第 k 个频点对应的频率 (Hz)
func (s *Spectrogram) BinFrequency(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.FrameSize)
}

// frameCount 居中分帧后的帧数
func frameCount(n, hopLength int) int {
	return 1 + n/hopLength
}

// padCenter 左侧补 frameSize/2 个零、右侧补 frameSize-frameSize/2 个零，
// 使第 t 帧以第 t*hop 个采样为中心，帧长为奇数时最后一帧也不越界
func padCenter(samples []float64, frameSize int) []float64 {
	half := frameSize / 2
	padded := make([]float64, len(samples)+frameSize)
	copy(padded[half:], samples)
	return padded
}

// Frames 将信号居中分帧，返回的每帧与补零后的信号共享底层数组
func Frames(samples []float64, frameSize, hopLength int) [][]float64 {
	padded := padCenter(samples, frameSize)
	n := frameCount(len(samples), hopLength)
	frames := make([][]float64, n)
	for t := 0; t < n; t++ {
		start := t * hopLength
		frames[t] = padded[start : start+frameSize]
	}
	return frames
}

// periodicHann 返回周期汉宁窗 (分母为 L 而非 L-1)
func periodicHann(frameSize int) []float64 {
	if frameSize <= 1 {
		return window.Hann(frameSize)
	}
	return window.Hann(frameSize + 1)[:frameSize]
}

// STFT 对分帧信号加周期汉宁窗后做FFT，返回幅度谱
func STFT(frames [][]float64, sampleRate, frameSize, hopLength int) *Spectrogram {
	hann := periodicHann(frameSize)
	bins := frameSize/2 + 1
	buf := make([]float64, frameSize)

	mags := make([][]float64, len(frames))
	for t, frame := range frames {
		for i, sample := range frame {
			buf[i] = sample * hann[i]
		}
		spectrum := fft.FFTReal(buf)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = cmplx.Abs(spectrum[k])
		}
		mags[t] = row
	}

	return &Spectrogram{
		Magnitudes: mags,
		SampleRate: sampleRate,
		FrameSize:  frameSize,
		HopLength:  hopLength,
	}
}

// Slaney 梅尔刻度：1000 Hz 以下线性，以上对数
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMinMel  = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz < melLogMinHz {
		return hz / melLinearStep
	}
	return melLogMinMel + math.Log(hz/melLogMinHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melLogMinMel {
		return mel * melLinearStep
	}
	return melLogMinHz * math.Exp(melLogStep*(mel-melLogMinMel))
}

// MelFilterBank 构造 nMels 个三角滤波器（Slaney 面积归一化），覆盖 0 到奈奎斯特频率
func MelFilterBank(sampleRate, frameSize, nMels int) [][]float64 {
	bins := frameSize/2 + 1
	fMax := float64(sampleRate) / 2

	minMel := hzToMel(0)
	maxMel := hzToMel(fMax)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(frameSize)
	}

	weights := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		lowerWidth := melF[m+1] - melF[m]
		upperWidth := melF[m+2] - melF[m+1]
		enorm := 2.0 / (melF[m+2] - melF[m])

		row := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - melF[m]) / lowerWidth
			upper := (melF[m+2] - f) / upperWidth
			w := math.Min(lower, upper)
			if w > 0 {
				row[k] = w * enorm
			}
		}
		weights[m] = row
	}
	return weights
}
