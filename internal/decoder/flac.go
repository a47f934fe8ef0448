package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"wakeup-checker/internal/types"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// FLACDecoder FLAC格式解码器
type FLACDecoder struct{}

// FLACFile FLAC文件实现
type FLACFile struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
	metadata   types.AudioMetadata
}

// SupportedFormats 返回支持的格式
func (d *FLACDecoder) SupportedFormats() []string {
	return []string{"flac"}
}

// Decode 解码FLAC文件
func (d *FLACDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开FLAC文件失败: %w", err)
	}

	// flac.New 只解析 STREAMINFO，其余元数据块需要 flac.Parse
	stream, err := flac.Parse(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("解析FLAC文件失败: %w", err)
	}

	info := stream.Info
	if info == nil || info.SampleRate == 0 || info.NChannels == 0 {
		file.Close()
		return nil, fmt.Errorf("无法读取FLAC信息: %s", filePath)
	}

	duration := time.Duration(float64(info.NSamples) / float64(info.SampleRate) * float64(time.Second))

	flacFile := &FLACFile{
		stream:     stream,
		file:       file,
		sampleRate: int(info.SampleRate),
		bitDepth:   int(info.BitsPerSample),
		channels:   int(info.NChannels),
		duration:   duration,
		metadata:   types.AudioMetadata{Duration: duration.String()},
	}

	flacFile.parseMetadata()

	return flacFile, nil
}

// parseMetadata 解析FLAC元数据
func (f *FLACFile) parseMetadata() {
	for _, block := range f.stream.Blocks {
		if block.Header.Type == meta.TypeVorbisComment {
			if comment, ok := block.Body.(*meta.VorbisComment); ok {
				f.metadata = types.AudioMetadata{
					Title:    getVorbisTag(comment, "TITLE"),
					Artist:   getVorbisTag(comment, "ARTIST"),
					Album:    getVorbisTag(comment, "ALBUM"),
					Year:     getVorbisTag(comment, "DATE"),
					Genre:    getVorbisTag(comment, "GENRE"),
					Duration: f.duration.String(),
				}
			}
		}
	}
}

// getVorbisTag 获取Vorbis注释标签
func getVorbisTag(comment *meta.VorbisComment, tag string) string {
	for _, field := range comment.Tags {
		if field[0] == tag {
			return field[1]
		}
	}
	return ""
}

// GetFormat 获取格式名称
func (f *FLACFile) GetFormat() string {
	return "FLAC"
}

// GetSampleRate 获取采样率
func (f *FLACFile) GetSampleRate() int {
	return f.sampleRate
}

// GetBitDepth 获取位深度
func (f *FLACFile) GetBitDepth() int {
	return f.bitDepth
}

// GetChannels 获取声道数
func (f *FLACFile) GetChannels() int {
	return f.channels
}

// GetDuration 获取时长
func (f *FLACFile) GetDuration() time.Duration {
	return f.duration
}

// ReadSamples 逐帧解析FLAC音频，达到 maxFrames 后停止
func (f *FLACFile) ReadSamples(maxFrames int) ([]float64, error) {
	var samples []float64
	maxVal := float64(int(1) << uint(f.bitDepth-1))
	read := 0

	for maxFrames <= 0 || read < maxFrames {
		frame, err := f.stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("解析FLAC音频帧失败: %w", err)
		}

		for i := 0; i < len(frame.Subframes[0].Samples); i++ {
			for ch := 0; ch < f.channels; ch++ {
				samples = append(samples, float64(frame.Subframes[ch].Samples[i])/maxVal)
			}
			read++
			if maxFrames > 0 && read >= maxFrames {
				break
			}
		}
	}

	return samples, nil
}

// GetMetadata 获取元数据
func (f *FLACFile) GetMetadata() types.AudioMetadata {
	return f.metadata
}

// Close 关闭文件
func (f *FLACFile) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
