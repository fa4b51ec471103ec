package agent

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// saveOutputs 把每页文本、PNG/HTML 预览、汇总预览与 result.json 写入输出目录。
func (a *Agent) saveOutputs(result ConversionResult) ([]string, error) {
	outDir := a.cfg.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	var files []string

	for i, page := range result.Pages {
		txtPath := filepath.Join(outDir, fmt.Sprintf("page_%d.txt", page.PageNumber))
		if err := os.WriteFile(txtPath, []byte(page.Content), 0o644); err != nil {
			return nil, err
		}
		files = append(files, txtPath)

		preview := result.Previews[i]
		pngPath := filepath.Join(outDir, fmt.Sprintf("preview_page_%d.png", page.PageNumber))
		if err := os.WriteFile(pngPath, preview.ImageBytes, 0o644); err != nil {
			return nil, err
		}
		files = append(files, pngPath)

		htmlPath := filepath.Join(outDir, fmt.Sprintf("preview_page_%d.html", page.PageNumber))
		if err := os.WriteFile(htmlPath, []byte(preview.HTML), 0o644); err != nil {
			return nil, err
		}
		files = append(files, htmlPath)
	}

	combinedPath := filepath.Join(outDir, "preview.html")
	if err := os.WriteFile(combinedPath, []byte(buildCombinedPreview(result)), 0o644); err != nil {
		return nil, err
	}
	files = append(files, combinedPath)

	resultPath := filepath.Join(outDir, "result.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(resultPath, data, 0o644); err != nil {
		return nil, err
	}
	files = append(files, resultPath)

	return files, nil
}

// buildCombinedPreview 汇总页：每张卡片以 iframe srcdoc 内嵌，横向滚动浏览。
func buildCombinedPreview(result ConversionResult) string {
	var cards []string
	for i, page := range result.Pages {
		cards = append(cards, fmt.Sprintf(
			`  <div class="card-wrap">
    <iframe srcdoc="%s" width="440" height="600" frameborder="0"></iframe>
    <div class="card-label">第 %d 页 · %d 字</div>
  </div>`,
			html.EscapeString(result.Previews[i].HTML), page.PageNumber, page.CharCount))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<title>小红书卡片预览（共 %d 页）</title>
<style>
  body { margin: 0; padding: 24px; background: #ececec; font-family: sans-serif; }
  .cards { display: flex; gap: 24px; overflow-x: auto; padding-bottom: 12px; }
  .card-wrap { flex-shrink: 0; }
  .card-label { text-align: center; color: #888; font-size: 13px; margin-top: 8px; }
  iframe { background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,0.1); }
</style>
</head>
<body>
<div class="cards">
%s
</div>
</body>
</html>
`, len(result.Pages), strings.Join(cards, "\n"))
}
