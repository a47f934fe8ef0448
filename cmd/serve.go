package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wakeup-checker/internal/analyzer"
	"wakeup-checker/internal/recommend"
	"wakeup-checker/internal/server"

	"github.com/spf13/cobra"
)

var bindAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 分析服务",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&bindAddr, "bind", "", "监听地址 (默认取配置)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("bind") {
		cfg.Server.Bind = bindAddr
	}

	audioAnalyzer := analyzer.NewAnalyzer(cfg.AnalyzerConfig(), analyzer.WithLogger(logger))
	handler := server.NewHandler(audioAnalyzer, recommend.NewRecommender(nil), server.Options{
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		DownloadTimeout: cfg.DownloadTimeout(),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg.Server.Bind, handler, logger)
}
