package main

import (
	"fmt"
	"os"

	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "简历字段提取命令行工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认位置查找")

	root.AddCommand(
		newExtractCommand(),
		newBatchCommand(),
		newCatalogCommand(),
		newInitConfigCommand(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	// 命令行输出到标准输出，日志走标准错误
	if _, err := logger.Init(logger.Config{Level: cfg.Logger.Level, Format: "json"}); err != nil {
		return nil, err
	}
	logger.Logger = logger.Logger.Output(os.Stderr)
	return cfg, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
