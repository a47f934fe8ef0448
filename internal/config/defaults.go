package config

import "runtime"

const (
	defaultMaxDurationSeconds     = 60
	defaultSampleRate             = 22050
	defaultFrameSize              = 2048
	defaultHopLength              = 512
	defaultSuitableScore          = 7.0
	defaultServerBind             = "127.0.0.1:8000"
	defaultDownloadTimeoutSeconds = 30
	defaultMaxUploadMB            = 50
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
)

// Default 返回填充了默认值的配置
func Default() Config {
	return Config{
		Analysis: Analysis{
			MaxDurationSeconds: defaultMaxDurationSeconds,
			SampleRate:         defaultSampleRate,
			FrameSize:          defaultFrameSize,
			HopLength:          defaultHopLength,
			SuitableScore:      defaultSuitableScore,
		},
		Batch: Batch{
			Concurrency: runtime.NumCPU(),
		},
		Server: Server{
			Bind:                   defaultServerBind,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
			MaxUploadMB:            defaultMaxUploadMB,
			AllowedOrigins:         []string{"*"},
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
