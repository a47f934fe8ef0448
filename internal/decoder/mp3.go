package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"wakeup-checker/internal/types"

	"github.com/hajimehoshi/go-mp3"
)

const (
	// go-mp3 固定输出 16-bit 小端双声道 PCM
	mp3Channels      = 2
	mp3BitDepth      = 16
	mp3BytesPerFrame = mp3Channels * mp3BitDepth / 8
	mp3ChunkBytes    = 4096 * mp3BytesPerFrame
)

// MP3Decoder MP3格式解码器
type MP3Decoder struct{}

// MP3File MP3文件实现
type MP3File struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	duration   time.Duration
}

// SupportedFormats 返回支持的格式
func (d *MP3Decoder) SupportedFormats() []string {
	return []string{"mp3"}
}

// Decode 解码MP3文件
func (d *MP3Decoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开MP3文件失败: %w", err)
	}

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("解析MP3文件失败: %w", err)
	}

	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		file.Close()
		return nil, fmt.Errorf("无法读取MP3采样率: %s", filePath)
	}

	var duration time.Duration
	if length := decoder.Length(); length > 0 {
		frames := float64(length) / mp3BytesPerFrame
		duration = time.Duration(frames / float64(sampleRate) * float64(time.Second))
	}

	return &MP3File{
		decoder:    decoder,
		file:       file,
		sampleRate: sampleRate,
		duration:   duration,
	}, nil
}

// GetFormat 获取格式名称
func (m *MP3File) GetFormat() string {
	return "MP3"
}

// GetSampleRate 获取采样率
func (m *MP3File) GetSampleRate() int {
	return m.sampleRate
}

// GetBitDepth 获取位深度
func (m *MP3File) GetBitDepth() int {
	return mp3BitDepth
}

// GetChannels 获取声道数
func (m *MP3File) GetChannels() int {
	return mp3Channels
}

// GetDuration 获取时长
func (m *MP3File) GetDuration() time.Duration {
	return m.duration
}

// ReadSamples 读取解码后的PCM字节流并转换为float64
func (m *MP3File) ReadSamples(maxFrames int) ([]float64, error) {
	limit := 0
	if maxFrames > 0 {
		limit = maxFrames * mp3Channels
	}

	buf := make([]byte, mp3ChunkBytes)
	var samples []float64
	for {
		n, err := io.ReadFull(m.decoder, buf)
		for i := 0; i+1 < n; i += 2 {
			sample := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
			samples = append(samples, float64(sample)/32768.0)
			if limit > 0 && len(samples) >= limit {
				return samples, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("读取MP3音频数据失败: %w", err)
		}
	}

	return samples, nil
}

// GetMetadata 获取元数据
func (m *MP3File) GetMetadata() types.AudioMetadata {
	return types.AudioMetadata{
		Duration: m.duration.String(),
	}
}

// Close 关闭文件
func (m *MP3File) Close() error {
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}
