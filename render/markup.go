package render

import (
	"fmt"
	"html"
	"strings"

	"rednote_card_maker/card"
)

// htmlCardTemplate 自包含预览模板，%% 占位符由 strings.NewReplacer 填充。
const htmlCardTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>小红书卡片 %%PAGE%%/%%TOTAL%%</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: %%FONT_FAMILY%%;
    background: #f5f5f5;
    display: flex;
    justify-content: center;
    align-items: center;
    min-height: 100vh;
    padding: 20px;
  }
  .rednote-card {
    width: %%CARD_WIDTH%%px;
    height: %%CARD_HEIGHT%%px;
    background: %%CARD_BG%%;
    border-radius: %%BORDER_RADIUS%%;
    box-shadow: %%SHADOW%%;
    padding: 36px 32px 30px;
    display: flex;
    flex-direction: column;
    overflow: hidden;
    position: relative;
  }
  .rednote-title {
    font-size: 20px;
    font-weight: 700;
    color: %%TITLE_COLOR%%;
    line-height: 1.4;
    margin-bottom: 14px;
    flex-shrink: 0;
  }
  .rednote-body {
    flex: 1;
    overflow: hidden;
    display: flex;
    flex-direction: column;
    gap: 10px;
  }
  .rednote-text-block {
    font-size: 14px;
    color: %%TEXT_COLOR%%;
    line-height: 1.75;
    white-space: pre-wrap;
    word-break: break-word;
  }
  .rednote-image-block {
    flex-shrink: 0;
    border-radius: 10px;
    overflow: hidden;
    max-height: 150px;
  }
  .rednote-image-block img {
    width: 100%;
    height: 100%;
    max-height: 150px;
    object-fit: cover;
    display: block;
  }
  .rednote-image-block.is-error {
    display: none;
  }
  .rednote-page-num {
    position: absolute;
    bottom: 14px;
    right: 24px;
    font-size: 12px;
    color: %%ACCENT_COLOR%%;
  }
  body.no-title .rednote-title { display: none; }
</style>
</head>
<body class="%%BODY_CLASS%%">
<div class="rednote-card">
  <div class="rednote-title">%%TITLE%%</div>
  <div class="rednote-body">
%%BODY_BLOCKS%%
  </div>
  <div class="rednote-page-num">%%PAGE%%/%%TOTAL%%</div>
</div>
</body>
</html>
`

// RenderToHTML 生成单页自包含 HTML 预览，图文顺序与 PNG 输出一致。
func (r *Renderer) RenderToHTML(content string, pageNumber int, imageURLs []string, imageSlots []int, totalPages int, useTitle bool) string {
	title, items := card.BuildFlowItems(content, imageURLs, imageSlots, useTitle)

	var blocks []string
	for _, item := range items {
		if item.Kind == card.FlowImage {
			src := toHTMLSrc(item.Value)
			blocks = append(blocks, fmt.Sprintf(
				`    <div class="rednote-image-block"><img src="%s" alt="配图" onerror="this.parentElement.classList.add('is-error')"></div>`,
				html.EscapeString(src)))
			continue
		}
		text := strings.TrimSpace(item.Value)
		if text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf(
			`    <div class="rednote-text-block">%s</div>`,
			html.EscapeString(text)))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, `    <div class="rednote-text-block"></div>`)
	}

	bodyClass := ""
	if title == "" {
		bodyClass = "no-title"
	}

	replacer := strings.NewReplacer(
		"%%PAGE%%", fmt.Sprintf("%d", pageNumber),
		"%%TOTAL%%", fmt.Sprintf("%d", totalPages),
		"%%FONT_FAMILY%%", r.style.FontFamily,
		"%%CARD_WIDTH%%", fmt.Sprintf("%d", htmlWidth),
		"%%CARD_HEIGHT%%", fmt.Sprintf("%d", htmlHeight),
		"%%CARD_BG%%", r.style.CardBG,
		"%%BORDER_RADIUS%%", r.style.BorderRadius,
		"%%SHADOW%%", r.style.Shadow,
		"%%TITLE_COLOR%%", r.style.TitleColor,
		"%%TEXT_COLOR%%", r.style.TextColor,
		"%%ACCENT_COLOR%%", r.style.AccentColor,
		"%%BODY_CLASS%%", bodyClass,
		"%%TITLE%%", html.EscapeString(title),
		"%%BODY_BLOCKS%%", strings.Join(blocks, "\n"),
	)
	return replacer.Replace(htmlCardTemplate)
}

// toHTMLSrc 把图片引用转为浏览器可用的 src：
// http(s)/data/绝对路径原样保留，相对路径仅做反斜杠归一。
func toHTMLSrc(imageURL string) string {
	return strings.ReplaceAll(imageURL, `\`, "/")
}
