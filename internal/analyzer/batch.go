package analyzer

import (
	"os"
	"sort"
	"sync"

	"wakeup-checker/internal/types"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const (
	StatusGood  = "GOOD"
	StatusPoor  = "POOR"
	StatusError = "ERROR"
)

// AnalyzeFiles 并发分析多个音频文件并输出结果
func (a *Analyzer) AnalyzeFiles(filePaths []string) ([]*types.AnalysisResult, error) {
	// 创建进度条，仅在终端上显示
	var bar *progressbar.ProgressBar
	if a.showProgress() {
		bar = progressbar.NewOptions(len(filePaths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("分析音频文件"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowIts(),
		)
	}

	// 创建工作通道
	jobs := make(chan string, len(filePaths))
	results := make(chan *types.AnalysisResult, len(filePaths))

	// 启动工作协程
	var wg sync.WaitGroup
	for i := 0; i < a.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range jobs {
				results <- a.analyzeFile(filePath)
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	// 发送任务
	go func() {
		for _, filePath := range filePaths {
			jobs <- filePath
		}
		close(jobs)
	}()

	// 等待所有任务完成
	go func() {
		wg.Wait()
		close(results)
	}()

	// 收集结果；表格模式在全部完成后统一输出，静默和JSON模式优先于表格
	tableMode := a.config.TableOutput && !a.config.Quiet && !a.config.JSONOutput
	var allResults []*types.AnalysisResult
	for result := range results {
		allResults = append(allResults, result)
		if !tableMode {
			a.outputResult(result)
		}
	}

	if bar != nil {
		bar.Finish()
		os.Stderr.WriteString("\n")
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].FilePath < allResults[j].FilePath
	})

	if tableMode {
		a.printTable(allResults)
	}

	// 输出统计信息
	if !a.config.Quiet && !a.config.JSONOutput {
		a.printSummary(allResults)
	}

	return allResults, nil
}

func (a *Analyzer) showProgress() bool {
	if a.config.Quiet || a.config.JSONOutput {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// analyzeFile 分析单个音频文件，错误记录在结果中
func (a *Analyzer) analyzeFile(filePath string) *types.AnalysisResult {
	result := &types.AnalysisResult{
		FilePath: filePath,
		Status:   StatusError,
	}

	analysis, err := a.analyze(filePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Format = analysis.format
	result.Metadata = analysis.metadata
	result.Report = analysis.report

	if analysis.report.SuitabilityScore >= a.config.SuitableScore {
		result.Status = StatusGood
	} else {
		result.Status = StatusPoor
	}

	return result
}
