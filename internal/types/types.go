package types

import "time"

// AnalyzerConfig 分析器配置
type AnalyzerConfig struct {
	MaxDuration   time.Duration // 分析窗口长度
	SampleRate    int           // 分析采样率 (Hz)，0 表示保持原始采样率
	FrameSize     int           // 帧长
	HopLength     int           // 帧移
	SuitableScore float64       // 达到该分数视为适合作为闹钟
	Concurrency   int           // 并发数
	Quiet         bool          // 静默模式
	JSONOutput    bool          // JSON输出格式
	TableOutput   bool          // 表格输出格式
}

// AudioMetadata 音频元数据
type AudioMetadata struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Year     string `json:"year,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// AudioWindow 解码后的单声道音频窗口，最多包含曲目的前 60 秒
type AudioWindow struct {
	Samples    []float64
	SampleRate int
}

// Duration 返回窗口时长
func (w *AudioWindow) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// FeatureSet 五个声学特征
type FeatureSet struct {
	BPM              float64 // 速度 (beats/minute)
	SpectralCentroid float64 // 频谱质心 (Hz)
	RMSEnergy        float64 // 均方根能量
	ZCR              float64 // 过零率
	OnsetStrength    float64 // 起音强度
}

// IssueCode 评分问题代码
type IssueCode string

const (
	TempoTooFast     IssueCode = "TEMPO_TOO_FAST"
	TempoTooSlow     IssueCode = "TEMPO_TOO_SLOW"
	SoundTooBright   IssueCode = "SOUND_TOO_BRIGHT"
	VolumeTooHigh    IssueCode = "VOLUME_TOO_HIGH"
	SoundTooNoisy    IssueCode = "SOUND_TOO_NOISY"
	RhythmTooIntense IssueCode = "RHYTHM_TOO_INTENSE"
	GoodBalance      IssueCode = "GOOD_BALANCE"
)

// SuitabilityReport 闹钟适用性报告
type SuitabilityReport struct {
	Filename          string      `json:"filename"`
	BPM               float64     `json:"bpm"`
	SpectralCentroid  float64     `json:"spectral_centroid"`
	RMSEnergy         float64     `json:"rms_energy"`
	ZCR               float64     `json:"zcr"`
	OnsetStrength     float64     `json:"onset_strength"`
	SuitabilityScore  float64     `json:"suitability_score"`
	SuitabilityIssues []IssueCode `json:"suitability_issues"`
}

// AnalysisResult 批量分析中单个文件的结果
type AnalysisResult struct {
	FilePath string             `json:"filePath"`
	Format   string             `json:"format"`
	Metadata AudioMetadata      `json:"metadata"`
	Status   string             `json:"status"` // "GOOD", "POOR", "ERROR"
	Report   *SuitabilityReport `json:"report,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	// ReadSamples 读取交错排列的采样数据，最多 maxFrames 帧 (0 表示全部)
	ReadSamples(maxFrames int) ([]float64, error)
	GetMetadata() AudioMetadata
	Close() error
}
