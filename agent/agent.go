package agent

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rednote_card_maker/card"
	"rednote_card_maker/llm"
	"rednote_card_maker/markdown"
	"rednote_card_maker/render"
)

// Agent 转换流水线的编排者。一次转换一个文档；并发任务各建各的 Agent。
type Agent struct {
	cfg       Config
	llm       llm.Client
	parser    *markdown.Parser
	analyzer  *card.Analyzer
	splitter  *card.Splitter
	formatter *card.Formatter
	renderer  *render.Renderer
	progress  ProgressFunc
}

// New 创建流水线。client 为 nil 时走纯本地规则（不调模型）。
func New(cfg Config, client llm.Client) *Agent {
	cfg = cfg.WithDefaults()
	return &Agent{
		cfg:       cfg,
		llm:       client,
		parser:    markdown.NewParser(),
		analyzer:  card.NewAnalyzer(client),
		splitter:  card.NewSplitter(client),
		formatter: card.NewFormatter(client, cfg.TonePrompt),
		renderer:  render.NewRenderer(cfg.FontPath, "", cfg.visualStyle()),
	}
}

// SetProgress 注册进度回调。
func (a *Agent) SetProgress(fn ProgressFunc) { a.progress = fn }

// ConvertFile 读取 Markdown 文件并执行完整转换，图片相对路径以文件所在目录解析。
func (a *Agent) ConvertFile(ctx context.Context, path string, useFeedback bool) (ConversionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("read markdown %s: %w", path, err)
	}
	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		baseDir = filepath.Dir(path)
	}
	return a.ConvertFromString(ctx, string(data), baseDir, useFeedback)
}

// ConvertFromString 执行完整转换流水线：
// 解析 → 图片分析 → 分页 → 排版 → 整篇连续性改写 → 渲染反馈循环 → 落盘。
func (a *Agent) ConvertFromString(ctx context.Context, src, baseDir string, useFeedback bool) (ConversionResult, error) {
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	a.renderer.SetBaseDir(baseDir)
	useLLM := a.llm != nil

	a.emit("parsing", "解析 Markdown", 0.05, 0)
	doc := a.parser.Parse(src)
	if len(doc.Blocks) == 0 {
		return ConversionResult{}, fmt.Errorf("document is empty")
	}
	log.Printf("[agent] parsed %d blocks, %d images, %d chars",
		len(doc.Blocks), len(doc.Images), doc.CharCount())

	a.emit("analyzing_images", "分析配图", 0.15, 0)
	analyses := make([]card.ImageAnalysis, 0, len(doc.Images))
	for _, img := range doc.Images {
		analyses = append(analyses, a.analyzer.Analyze(ctx, img.Path, baseDir))
	}

	a.emit("splitting", "内容分页", 0.3, 0)
	pages := a.splitter.Split(ctx, doc, analyses, useLLM)
	log.Printf("[agent] split into %d pages", len(pages))

	a.emit("formatting", "小红书排版", 0.45, 0)
	formatted := a.formatter.FormatAllPages(ctx, pages, useLLM)
	formatted = a.formatter.OptimizeDocumentPages(ctx, formatted, useLLM)

	a.emit("visual_feedback", "渲染与视觉审查", 0.6, 0)
	finalPages, previews, reviews, iterations, err := a.runRenderFeedbackLoop(ctx, formatted, useFeedback)
	if err != nil {
		return ConversionResult{}, err
	}

	result := ConversionResult{
		Pages:         finalPages,
		Previews:      previews,
		Reviews:       reviews,
		Iterations:    iterations,
		ImageAnalyses: analyses,
	}

	a.emit("saving", "写出产物", 0.9, 0)
	files, err := a.saveOutputs(result)
	if err != nil {
		return ConversionResult{}, err
	}
	result.OutputFiles = files

	a.emit("complete", "转换完成", 1.0, 0)
	return result, nil
}
