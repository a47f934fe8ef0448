package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"wakeup-checker/internal/config"

	"github.com/spf13/cobra"
)

var (
	initPath      string
	initOverwrite bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置文件管理",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "生成示例配置文件",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示生效的配置文件路径",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().StringVar(&initPath, "path", "", "写入路径 (默认 ~/.config/wakeup-checker/config.toml)")
	configInitCmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "覆盖已有文件")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := initPath
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		target = defaultPath
	} else {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return err
		}
		target = expanded
	}

	if _, err := os.Stat(target); err == nil && !initOverwrite {
		return fmt.Errorf("配置文件已存在: %s (使用 --overwrite 覆盖)", target)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("检查配置文件失败: %w", err)
	}

	if err := config.CreateSample(target); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已写入示例配置: %s\n", target)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exists {
		fmt.Fprintf(out, "配置文件: %s\n", resolved)
	} else {
		fmt.Fprintf(out, "配置文件: %s (不存在，使用默认值)\n", resolved)
	}
	fmt.Fprintf(out, "分析时长: %d 秒\n", cfg.Analysis.MaxDurationSeconds)
	fmt.Fprintf(out, "采样率: %d Hz\n", cfg.Analysis.SampleRate)
	fmt.Fprintf(out, "适合阈值: %.1f\n", cfg.Analysis.SuitableScore)
	fmt.Fprintf(out, "并发数: %d\n", cfg.Batch.Concurrency)
	fmt.Fprintf(out, "服务地址: %s\n", cfg.Server.Bind)
	return nil
}
