package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"wakeup-checker/internal/types"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames 每次从 PCM 数据块读取的帧数
const wavChunkFrames = 4096

// WAVDecoder WAV格式解码器
type WAVDecoder struct{}

// WAVFile WAV文件实现
type WAVFile struct {
	decoder    *wav.Decoder
	file       *os.File
	format     *audio.Format
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
}

// SupportedFormats 返回支持的格式
func (d *WAVDecoder) SupportedFormats() []string {
	return []string{"wav"}
}

// Decode 解码WAV文件
func (d *WAVDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开WAV文件失败: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("无效的WAV文件: %s", filePath)
	}

	format := &audio.Format{
		NumChannels: int(decoder.NumChans),
		SampleRate:  int(decoder.SampleRate),
	}
	bitDepth := int(decoder.BitDepth)
	if format.NumChannels <= 0 || format.SampleRate <= 0 || bitDepth <= 0 {
		file.Close()
		return nil, fmt.Errorf("WAV头信息不完整: %s", filePath)
	}

	// 定位到 data 块，PCMLen 随之可用
	if err := decoder.FwdToPCM(); err != nil {
		file.Close()
		return nil, fmt.Errorf("定位PCM数据失败: %w", err)
	}
	duration := wavDuration(decoder, format.NumChannels, bitDepth, format.SampleRate)

	return &WAVFile{
		decoder:    decoder,
		file:       file,
		format:     format,
		sampleRate: format.SampleRate,
		bitDepth:   bitDepth,
		channels:   format.NumChannels,
		duration:   duration,
	}, nil
}

// wavDuration 由 data 块字节数计算时长，data 块长度未知时退回头信息估算
func wavDuration(decoder *wav.Decoder, channels, bitDepth, sampleRate int) time.Duration {
	bytesPerFrame := channels * ((bitDepth + 7) / 8)
	if pcmLen := decoder.PCMLen(); pcmLen > 0 && bytesPerFrame > 0 {
		frames := float64(pcmLen) / float64(bytesPerFrame)
		return time.Duration(frames / float64(sampleRate) * float64(time.Second))
	}
	if d, err := decoder.Duration(); err == nil {
		return d
	}
	return 0
}

// GetFormat 获取格式名称
func (w *WAVFile) GetFormat() string {
	return "WAV"
}

// GetSampleRate 获取采样率
func (w *WAVFile) GetSampleRate() int {
	return w.sampleRate
}

// GetBitDepth 获取位深度
func (w *WAVFile) GetBitDepth() int {
	return w.bitDepth
}

// GetChannels 获取声道数
func (w *WAVFile) GetChannels() int {
	return w.channels
}

// GetDuration 获取时长
func (w *WAVFile) GetDuration() time.Duration {
	return w.duration
}

// ReadSamples 按块读取PCM数据并转换为float64
func (w *WAVFile) ReadSamples(maxFrames int) ([]float64, error) {
	limit := 0
	if maxFrames > 0 {
		limit = maxFrames * w.channels
	}

	buf := &audio.IntBuffer{
		Format: w.format,
		Data:   make([]int, wavChunkFrames*w.channels),
	}
	maxVal := float64(int(1) << uint(w.bitDepth-1))

	var samples []float64
	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("读取PCM数据失败: %w", err)
		}
		for _, sample := range buf.Data[:n] {
			samples = append(samples, float64(sample)/maxVal)
			if limit > 0 && len(samples) >= limit {
				return samples, nil
			}
		}
		if n == 0 || err != nil {
			break
		}
	}

	return samples, nil
}

// GetMetadata 获取元数据
func (w *WAVFile) GetMetadata() types.AudioMetadata {
	// WAV文件的元数据支持有限，这里返回基本信息
	return types.AudioMetadata{
		Duration: w.duration.String(),
	}
}

// Close 关闭文件
func (w *WAVFile) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
