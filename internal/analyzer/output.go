package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wakeup-checker/internal/scoring"
	"wakeup-checker/internal/types"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// outputResult 输出单个分析结果
func (a *Analyzer) outputResult(result *types.AnalysisResult) {
	// 静默模式，只输出不适合作为闹钟的文件路径
	if a.config.Quiet {
		if result.Status == StatusPoor {
			fmt.Fprintln(a.out, result.FilePath)
		}
		return
	}

	// JSON输出格式
	if a.config.JSONOutput {
		jsonData, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON序列化失败: %v\n", err)
			return
		}
		fmt.Fprintln(a.out, string(jsonData))
		return
	}

	a.printDetailedResult(result)
}

// printDetailedResult 打印详细结果
func (a *Analyzer) printDetailedResult(result *types.AnalysisResult) {
	w := a.out
	fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(result.FilePath))
	fmt.Fprintf(w, "路径: %s\n", result.FilePath)
	if result.Format != "" {
		fmt.Fprintf(w, "格式: %s\n", result.Format)
	}
	fmt.Fprintf(w, "状态: %s\n", result.Status)

	if result.Error != "" {
		fmt.Fprintf(w, "错误: %s\n", result.Error)
		return
	}

	if result.Metadata.Title != "" {
		fmt.Fprintf(w, "标题: %s\n", result.Metadata.Title)
	}
	if result.Metadata.Artist != "" {
		fmt.Fprintf(w, "艺术家: %s\n", result.Metadata.Artist)
	}

	report := result.Report
	fmt.Fprintf(w, "速度: %.2f BPM\n", report.BPM)
	fmt.Fprintf(w, "频谱质心: %.2f Hz\n", report.SpectralCentroid)
	fmt.Fprintf(w, "RMS能量: %.4f\n", report.RMSEnergy)
	fmt.Fprintf(w, "过零率: %.4f\n", report.ZCR)
	fmt.Fprintf(w, "起音强度: %.4f\n", report.OnsetStrength)
	fmt.Fprintf(w, "适用性评分: %.1f / 10\n", report.SuitabilityScore)
	for _, issue := range report.SuitabilityIssues {
		fmt.Fprintf(w, "  - %s: %s\n", issue, scoring.Describe(issue))
	}

	if result.Status == StatusGood {
		fmt.Fprintf(w, "✅ 适合作为闹钟铃声\n")
	} else {
		fmt.Fprintf(w, "⚠️  不太适合作为闹钟铃声\n")
	}
}

// printTable 以表格形式输出所有结果
func (a *Analyzer) printTable(results []*types.AnalysisResult) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"文件", "BPM", "质心 (Hz)", "RMS", "ZCR", "起音", "评分", "问题"})

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if result.Report == nil {
			tw.AppendRow(table.Row{name, "-", "-", "-", "-", "-", "-", result.Error})
			continue
		}
		r := result.Report
		issues := make([]string, len(r.SuitabilityIssues))
		for i, issue := range r.SuitabilityIssues {
			issues[i] = string(issue)
		}
		tw.AppendRow(table.Row{
			name,
			fmt.Sprintf("%.2f", r.BPM),
			fmt.Sprintf("%.2f", r.SpectralCentroid),
			fmt.Sprintf("%.4f", r.RMSEnergy),
			fmt.Sprintf("%.4f", r.ZCR),
			fmt.Sprintf("%.4f", r.OnsetStrength),
			fmt.Sprintf("%.1f", r.SuitabilityScore),
			strings.Join(issues, ", "),
		})
	}

	configs := make([]table.ColumnConfig, 0, 6)
	for col := 2; col <= 7; col++ {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	fmt.Fprintln(a.out, tw.Render())
}

// printSummary 打印统计摘要
func (a *Analyzer) printSummary(results []*types.AnalysisResult) {
	total := len(results)
	good := 0
	poor := 0
	errors := 0

	for _, result := range results {
		switch result.Status {
		case StatusGood:
			good++
		case StatusPoor:
			poor++
		case StatusError:
			errors++
		}
	}

	w := a.out
	fmt.Fprintf(w, "\n=== 分析统计 ===\n")
	fmt.Fprintf(w, "总文件数: %d\n", total)
	fmt.Fprintf(w, "适合: %d\n", good)
	fmt.Fprintf(w, "不适合: %d\n", poor)
	if errors > 0 {
		fmt.Fprintf(w, "错误文件: %d\n", errors)
	}

	if poor > 0 {
		fmt.Fprintf(w, "\n⚠️  %d 个文件评分低于 %.1f，不建议作为闹钟铃声\n", poor, a.config.SuitableScore)
	} else if good > 0 {
		fmt.Fprintf(w, "\n✅ 所有成功分析的文件都适合作为闹钟铃声\n")
	}
}
