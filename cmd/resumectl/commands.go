package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"resume-extractor/internal/config"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/textsource"
	"resume-extractor/internal/types"

	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExtractCommand() *cobra.Command {
	var (
		file        string
		converter   string
		noEntities  bool
		showText    bool
		textTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "从本地文件提取候选人字段",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("必须通过 --file 指定文件")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if converter == "" {
				converter = cfg.TextSource.Type
			}
			if converter == "textract" {
				return fmt.Errorf("textract 只能处理存储桶中的文档，请使用 batch 命令")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), textTimeout)
			defer cancel()

			absPath, err := filepath.Abs(file)
			if err != nil {
				return fmt.Errorf("无法获取文件的绝对路径: %w", err)
			}
			conv, err := processor.BuildConverter(ctx, converter, cfg.TextSource.Tika)
			if err != nil {
				return err
			}
			provider := textsource.NewConvertingProvider(textsource.NewFileSource(filepath.Dir(absPath)), conv)
			text, err := provider.GetText(ctx, types.DocumentRef{Key: filepath.Base(absPath)})
			if err != nil {
				return err
			}

			if noEntities {
				cfg.Entity.Type = "none"
			}
			rec, err := processor.BuildRecognizer(ctx, cfg, nil)
			if err != nil {
				return err
			}
			record, err := processor.BuildEngine(cfg, rec).Extract(ctx, text)
			if err != nil {
				return err
			}

			out := map[string]interface{}{"record": record}
			if showText {
				out["text"] = text
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "简历文件路径")
	cmd.Flags().StringVar(&converter, "converter", "", "文本转换器: plain, docconv, tika, eino，默认取配置")
	cmd.Flags().BoolVar(&noEntities, "no-entities", false, "不调用实体识别服务，只使用技能目录")
	cmd.Flags().BoolVar(&showText, "show-text", false, "同时输出提取到的文本")
	cmd.Flags().DurationVar(&textTimeout, "timeout", 2*time.Minute, "整体超时")
	return cmd
}

func newBatchCommand() *cobra.Command {
	var (
		eventFile string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "按配置处理一个批次事件文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventFile == "" {
				return fmt.Errorf("必须通过 --event 指定事件文件")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(eventFile)
			if err != nil {
				return fmt.Errorf("读取事件文件失败: %w", err)
			}
			var event types.BatchEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("解析事件文件失败: %w", err)
			}

			ctx := cmd.Context()
			var st *storage.Storage
			if persist {
				st, err = storage.NewStorage(ctx, cfg)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			proc, _, err := processor.NewBatchProcessorFromConfig(ctx, cfg, st)
			if err != nil {
				return err
			}
			result := proc.ProcessEvent(ctx, event)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.StatusCode != http.StatusOK {
				return fmt.Errorf("批次处理未全部成功: %d %s", result.StatusCode, result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventFile, "event", "e", "", "批次事件 JSON 文件")
	cmd.Flags().BoolVar(&persist, "persist", false, "连接存储并保存提取结果")
	return cmd
}

func newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "列出当前配置的技能目录",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, name := range processor.BuildEngine(cfg, nil).Catalog().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newInitConfigCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "写出一份默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateSampleConfig(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "config.yaml", "输出路径")
	return cmd
}
