package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# 周末探店小记

这家咖啡店藏在巷子深处，装修是暖色调的木质风格。

- 手冲豆子每周轮换
- 靠窗的位置采光最好

> 老板说招牌是桂花拿铁。

总体值得一去，适合安静办公的下午。`

func TestConvertFromStringRuleBased(t *testing.T) {
	outDir := t.TempDir()
	a := New(Config{OutputDir: outDir}, nil)

	var events []ProgressEvent
	a.SetProgress(func(ev ProgressEvent) { events = append(events, ev) })

	result, err := a.ConvertFromString(context.Background(), sampleMarkdown, t.TempDir(), false)
	require.NoError(t, err)
	require.NotEmpty(t, result.Pages)
	require.Len(t, result.Previews, len(result.Pages))
	require.Len(t, result.Iterations, len(result.Pages))

	// 每页三件产物 + 汇总预览 + result.json
	require.Len(t, result.OutputFiles, len(result.Pages)*3+2)
	for _, f := range result.OutputFiles {
		_, err := os.Stat(f)
		require.NoError(t, err, "missing output file %s", f)
	}

	txt, err := os.ReadFile(filepath.Join(outDir, "page_1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(txt), "咖啡店")

	combined, err := os.ReadFile(filepath.Join(outDir, "preview.html"))
	require.NoError(t, err)
	require.Contains(t, string(combined), "iframe")

	require.NotEmpty(t, events)
	first, last := events[0], events[len(events)-1]
	require.Equal(t, "parsing", first.Stage)
	require.Equal(t, "complete", last.Stage)
	require.Equal(t, 1.0, last.Progress)
}

func TestConvertFromStringEmptyDocument(t *testing.T) {
	a := New(Config{OutputDir: t.TempDir()}, nil)

	_, err := a.ConvertFromString(context.Background(), "   \n\n", "", false)
	require.Error(t, err)
}

func TestConvertFileResolvesImageBaseDir(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "post.md")
	src := "正文开头。\n\n![配图](pic.png)\n\n正文结尾。"
	require.NoError(t, os.WriteFile(mdPath, []byte(src), 0o644))

	outDir := t.TempDir()
	a := New(Config{OutputDir: outDir}, nil)

	result, err := a.ConvertFile(context.Background(), mdPath, false)
	require.NoError(t, err)
	require.Len(t, result.ImageAnalyses, 1)
	require.Equal(t, "pic.png", result.ImageAnalyses[0].Path)

	// 图片 URL 跟随页面内容进入渲染
	var urls []string
	for _, page := range result.Pages {
		urls = append(urls, page.ImageURLs...)
	}
	require.Contains(t, urls, "pic.png")
}

func TestProgressCallbackPanicDoesNotAbort(t *testing.T) {
	a := New(Config{OutputDir: t.TempDir()}, nil)
	a.SetProgress(func(ProgressEvent) { panic("listener bug") })

	_, err := a.ConvertFromString(context.Background(), sampleMarkdown, "", false)
	require.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"llm": {"provider": "openai", "model": "gpt-4o-mini"},
		"server_addr": ":9090",
		"max_iterations": 5
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.LLM.Provider)
	require.Equal(t, ":9090", cfg.ServerAddr)
	require.Equal(t, 5, cfg.MaxIterations)
	// 缺省项被填充
	require.Equal(t, "output", cfg.OutputDir)
	require.Equal(t, 7, cfg.PassThreshold)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	require.Equal(t, "output", cfg.OutputDir)
	require.Equal(t, 3, cfg.MaxIterations)
	require.Equal(t, 7, cfg.PassThreshold)
}

func TestVisualReviewFeedbackFormat(t *testing.T) {
	review := VisualReview{Issues: []string{"A"}, Suggestions: []string{"B"}}
	require.Equal(t, "问题: A\n建议: B", strings.TrimSpace(review.Feedback()))
}
