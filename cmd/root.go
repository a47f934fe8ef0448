package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wakeup-checker/internal/analyzer"
	"wakeup-checker/internal/config"
	"wakeup-checker/internal/decoder"
	"wakeup-checker/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	logFormat   string
	quiet       bool
	jsonOutput  bool
	tableOutput bool
	minScore    float64
	maxDuration int
	concurrency int
	version     = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "wakeup-checker [path]",
	Short: "评估音乐是否适合作为闹钟铃声",
	Long: `Wakeup Checker 是一个CLI工具，用于评估音乐是否适合作为起床闹钟。
当前支持 WAV, FLAC, MP3 格式。

分析每首曲目开头的一段音频，提取速度、频谱质心、能量、过零率和起音强度，
按规则表打出 0-10 分并给出问题代码。`,
	Args:          cobra.ExactArgs(1),
	RunE:          runAnalysis,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (默认 ~/.config/wakeup-checker/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "日志格式: console, json")

	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "静默模式，仅输出不适合作为闹钟的文件路径")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出结果")
	rootCmd.Flags().BoolVar(&tableOutput, "table", false, "以表格形式输出结果")
	rootCmd.Flags().Float64Var(&minScore, "min-score", 0, "判定为适合的最低评分 (默认取配置)")
	rootCmd.Flags().IntVar(&maxDuration, "max-duration", 0, "每个文件分析的最长秒数 (默认取配置)")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "并发处理文件数量 (默认取配置)")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "table")
	rootCmd.MarkFlagsMutuallyExclusive("json", "table")

	rootCmd.SetVersionTemplate("wakeup-checker version {{.Version}}\n")
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd, recommendCmd, configCmd)
}

// loadRuntime 加载配置，应用命令行覆盖项，并构造日志
func loadRuntime(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("min-score") {
		cfg.Analysis.SuitableScore = minScore
	}
	if flags.Changed("max-duration") {
		cfg.Analysis.MaxDurationSeconds = maxDuration
	}
	if flags.Changed("concurrency") && concurrency > 0 {
		cfg.Batch.Concurrency = concurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	// 检查路径是否存在
	if _, err := os.Stat(targetPath); os.IsNotExist(err) {
		return fmt.Errorf("路径不存在: %s", targetPath)
	}

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	// 创建分析器配置
	analyzerConfig := cfg.AnalyzerConfig()
	analyzerConfig.Quiet = quiet
	analyzerConfig.JSONOutput = jsonOutput
	analyzerConfig.TableOutput = tableOutput

	audioAnalyzer := analyzer.NewAnalyzer(analyzerConfig,
		analyzer.WithLogger(logger),
		analyzer.WithOutput(cmd.OutOrStdout()),
	)

	// 收集音频文件
	files, err := collectAudioFiles(targetPath, audioAnalyzer.Registry())
	if err != nil {
		return fmt.Errorf("收集音频文件失败: %w", err)
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "未找到支持的音频文件")
		return nil
	}

	_, err = audioAnalyzer.AnalyzeFiles(files)
	return err
}

func collectAudioFiles(path string, registry *decoder.DecoderRegistry) ([]string, error) {
	var files []string

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if registry.Supports(filePath) {
			files = append(files, filePath)
		}

		return nil
	})

	return files, err
}
