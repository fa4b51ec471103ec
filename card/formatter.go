package card

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"rednote_card_maker/llm"
	"rednote_card_maker/markdown"
)

// FormatSystemPrompt 默认语气：25 岁小红书博主。可被模板语气覆盖。
const FormatSystemPrompt = `你是一个 25 岁的小红书博主，把内容改写成你自己发帖的风格。

你的风格特点：
- 说人话！像跟朋友聊天一样，别端着
- 句子要短，一句话别超过 20 字
- 多换行，看着不累
- emoji 要自然，别硬塞，用就用年轻人爱用的（✨🫠💀😭🤯🔥💡👀🥹等）
- 绝对不要用【】这种老土标注
- 列表就用 · 或者 - 或者直接换行
- 不要写"记得点赞收藏"之类的（太油腻）
- 每页总字数控制在 400 字以内！超了就精简

空行用 ⠀ (U+2800 盲文空格)，别用普通空行。

返回JSON：
{
    "title": "改写后的标题（要吸引人但别标题党）",
    "sections": [{"content": "改写后的正文"}],
    "ending": "简短收尾，可以为空"
}`

// DocumentContinuitySystemPrompt 整篇连续叙事改写的系统提示词。
const DocumentContinuitySystemPrompt = `你是同一位小红书作者的"整篇改稿编辑"。
你的任务不是逐页润色，而是把整篇分页草稿重写成"一条连续叙事"的多页图文。

核心要求（必须同时满足）：
1) 页数锁定：输出 pages 数量必须与输入完全一致。
2) 连续叙事：
   - 第1页可以有短标题/钩子。
   - 第2页及以后必须承接上一页，不允许每页都像新开一条帖子。
   - 禁止"重新起题、重复总结、重复开场白"。
3) 小红书节奏：
   - 短句优先，尽量一行一句或两句。
   - 每页用 3-8 个自然换行组织信息，避免整页单段长文。
   - 语气自然口语化，但不要油腻口播腔。
4) 信息完整：工具名、步骤顺序、关键术语、关键代码片段不能丢。
5) 图片感知：若输入正文里出现 <IMG_1>、<IMG_2>... 图片锚点，必须原样保留。
   - 每个锚点必须且只能出现一次，顺序不可改变。
   - 锚点应作为独立段落（单独一行）放置在最合适的位置。
6) 清理语法噪声：去掉 Markdown 痕迹（如 **、` + "`" + `、[]()）。
7) 篇幅控制：每页建议 180-360 字，允许少量浮动；硬上限 430 字，超出必须主动压缩。

输出格式（严格）：
只输出 JSON，不要输出任何解释文字。
{
  "pages": [
    {"content": "第1页内容"},
    {"content": "第2页内容"}
  ]
}`

// Formatter 小红书排版格式化器。
type Formatter struct {
	client           llm.Client
	toneSystemPrompt string
}

// NewFormatter 创建格式化器。client 可为 nil（纯本地规则排版）；
// toneSystemPrompt 非空时覆盖默认语气。
func NewFormatter(client llm.Client, toneSystemPrompt string) *Formatter {
	return &Formatter{client: client, toneSystemPrompt: toneSystemPrompt}
}

func (f *Formatter) formatBlock(block markdown.ContentBlock) string {
	switch block.Type {
	case markdown.BlockHeading:
		return normalizer.NormalizeLine(block.Content)
	case markdown.BlockParagraph:
		return normalizer.NormalizeMultiline(block.Content)
	case markdown.BlockList:
		lines := make([]string, 0, len(block.Items))
		for _, item := range block.Items {
			line := normalizer.NormalizeLine(item)
			if !strings.HasPrefix(line, ListMarker+" ") {
				line = ListMarker + " " + line
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	case markdown.BlockQuote:
		var lines []string
		for _, line := range strings.Split(normalizer.NormalizeMultiline(block.Content), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, QuoteMark+" "+line)
		}
		return strings.Join(lines, "\n")
	case markdown.BlockCode:
		return normalizer.CompactCodeBlock(block.Content, block.Language)
	case markdown.BlockRule:
		return "—"
	case markdown.BlockImage:
		// 图片单独上传，这里只返回占位说明
		if block.Image != nil && block.Image.Alt != "" {
			return fmt.Sprintf("[图片: %s]", block.Image.Alt)
		}
		return "[图片]"
	default:
		return block.Content
	}
}

// FormatPage 格式化单页：产出卡片文本与初始图片槽位（格式化块坐标）。
func (f *Formatter) FormatPage(ctx context.Context, page PageContent, useLLM bool) FormattedPage {
	var formattedParts []string
	var imageURLs []string
	var imageSlots []int

	for _, block := range page.Blocks {
		// 图片块：收集 URL 但不输出占位文字
		if block.Type == markdown.BlockImage {
			if block.Image != nil {
				imageURLs = append(imageURLs, block.Image.Path)
				imageSlots = append(imageSlots, len(formattedParts))
			}
			continue
		}
		formattedParts = append(formattedParts, f.formatBlock(block))
	}

	content := strings.Join(formattedParts, ParagraphSeparator)

	if useLLM && f.client != nil {
		content = f.llmOptimize(ctx, content, page)
	}

	content = normalizer.NormalizeRichText(content, ParagraphSeparator)

	// 页面内没有显式图片块时，回退到 splitter 给的图片列表
	if len(imageURLs) == 0 {
		for _, img := range page.Images {
			imageURLs = append(imageURLs, img.Path)
			imageSlots = append(imageSlots, len(formattedParts))
		}
	}

	imageSlots = RemapSlotsProportional(imageSlots, len(formattedParts), countBlocks(content))

	return newFormattedPage(page.PageNumber, content, imageURLs, imageSlots)
}

// FormatAllPages 顺序格式化所有页面。
func (f *Formatter) FormatAllPages(ctx context.Context, pages []PageContent, useLLM bool) []FormattedPage {
	formatted := make([]FormattedPage, 0, len(pages))
	for _, page := range pages {
		fp := f.FormatPage(ctx, page, useLLM)
		formatted = append(formatted, fp)
		log.Printf("[formatter] page %d: %d chars, %d emojis, proper_spacing=%v",
			fp.PageNumber, fp.CharCount, fp.EmojiCount, fp.HasProperSpacing)
	}
	return formatted
}

func (f *Formatter) llmOptimize(ctx context.Context, content string, page PageContent) string {
	dominantMood := "neutral"
	moodCounts := map[string]int{}
	for _, img := range page.Images {
		moodCounts[img.Mood]++
		if moodCounts[img.Mood] > moodCounts[dominantMood] {
			dominantMood = img.Mood
		}
	}

	base := f.toneSystemPrompt
	if base == "" {
		base = FormatSystemPrompt
	}
	systemPrompt := fmt.Sprintf(`%s

额外上下文（仅供你参考，不要在输出中出现这些元数据）：
- 图片情感：%s
- 是否为封面页：%v

严格要求：输出的 JSON 中只包含排版后的正文内容，禁止出现任何元数据、指令或说明文字。`,
		base, dominantMood, page.IsCover)

	result, err := f.client.ChatText(ctx, llm.TextRequest{
		SystemPrompt: systemPrompt,
		UserPrompt: fmt.Sprintf(`请优化以下小红书内容的排版，空行必须使用字符 ⠀ (U+2800)。
返回 JSON 格式。

原始内容：
%s`, content),
		Temperature: 0.5,
		MaxTokens:   2000,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("[formatter] LLM optimization failed: %v", err)
		return content
	}

	data, err := llm.ParseJSON(result.Content)
	if err != nil || !data.IsObject() {
		return content
	}

	var parts []string
	if title := data.Get("title"); title.Exists() && title.String() != "" {
		parts = append(parts, title.String())
	}
	for _, section := range data.Get("sections").Array() {
		if body := section.Get("content").String(); body != "" {
			parts = append(parts, body)
		}
	}
	if ending := data.Get("ending").String(); ending != "" {
		parts = append(parts, ending)
	}

	if len(parts) == 0 {
		return content
	}
	return strings.Join(parts, ParagraphSeparator)
}

type continuityPage struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
	HasImages  bool   `json:"has_images"`
	ImageCount int    `json:"image_count"`
	CharCount  int    `json:"char_count"`
}

type continuityPayload struct {
	TotalPages     int              `json:"total_pages"`
	Pages          []continuityPage `json:"pages"`
	OutputContract map[string]any   `json:"output_contract"`
}

// OptimizeDocumentPages 整篇连续性改写：一次 LLM 调用重写全部页面。
// 任一校验失败（页数不符、锚点被破坏、JSON 不可解析）都整体放弃改写，
// 保持原页面集不变 —— 坏的改写绝不能局部污染部分页面。
func (f *Formatter) OptimizeDocumentPages(ctx context.Context, pages []FormattedPage, useLLM bool) []FormattedPage {
	if len(pages) == 0 {
		return pages
	}
	if !useLLM || f.client == nil {
		return f.normalizeFormattedPages(pages)
	}

	payload := continuityPayload{
		TotalPages: len(pages),
		OutputContract: map[string]any{
			"must_keep_page_count":        true,
			"style":                       "single_continuous_story_across_pages",
			"forbid_restart_after_page_1": true,
		},
	}
	for _, page := range pages {
		payload.Pages = append(payload.Pages, continuityPage{
			PageNumber: page.PageNumber,
			Content:    InjectImageTokens(page.Content, page.ImageSlots, len(page.ImageURLs)),
			HasImages:  len(page.ImageURLs) > 0,
			ImageCount: len(page.ImageURLs),
			CharCount:  utf8.RuneCountInString(page.Content),
		})
	}
	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return f.normalizeFormattedPages(pages)
	}

	result, err := f.client.ChatText(ctx, llm.TextRequest{
		SystemPrompt: DocumentContinuitySystemPrompt,
		UserPrompt: "请基于下面的 JSON 输入重写整篇分页草稿。\n" +
			"关键：第2页开始必须承接，不要每页重新起标题。\n" +
			"请直接输出 JSON（只含 pages 字段）。\n\n" + string(payloadJSON),
		Temperature: 0.3,
		MaxTokens:   4000,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("[formatter] document continuity rewrite failed: %v", err)
		return f.normalizeFormattedPages(pages)
	}

	data, err := llm.ParseJSON(result.Content)
	if err != nil || !data.IsObject() {
		return f.normalizeFormattedPages(pages)
	}

	rawPages := data.Get("pages").Array()
	if len(rawPages) != len(pages) {
		log.Printf("[formatter] continuity rewrite returned mismatched page count: expected=%d got=%d",
			len(pages), len(rawPages))
		return pages
	}

	rebuilt := make([]FormattedPage, 0, len(pages))
	for idx, oldPage := range pages {
		candidate := strings.TrimSpace(rawPages[idx].Get("content").String())
		if candidate == "" {
			candidate = strings.TrimSpace(rawPages[idx].String())
		}
		if candidate == "" {
			candidate = oldPage.Content
		}

		if len(oldPage.ImageURLs) > 0 {
			tokens := ExtractImageTokens(candidate)
			if !ValidTokenSequence(tokens, len(oldPage.ImageURLs)) {
				log.Printf("[formatter] page %d image tokens invalid, fallback to tokenized source (got=%v)",
					oldPage.PageNumber, tokens)
				candidate = InjectImageTokens(oldPage.Content, oldPage.ImageSlots, len(oldPage.ImageURLs))
			}
		}

		newContent, semanticSlots := StripImageTokens(candidate, len(oldPage.ImageURLs))
		if newContent == "" {
			newContent = oldPage.Content
		}

		slots := semanticSlots
		if len(slots) != len(oldPage.ImageURLs) {
			slots = RemapSlotsProportional(oldPage.ImageSlots, countBlocks(oldPage.Content), countBlocks(newContent))
		}

		rebuilt = append(rebuilt, newFormattedPage(oldPage.PageNumber, newContent, oldPage.ImageURLs, slots))
	}

	return f.normalizeFormattedPages(rebuilt)
}

// normalizeFormattedPages 只做最小规整，不做本地规则改写。
func (f *Formatter) normalizeFormattedPages(pages []FormattedPage) []FormattedPage {
	rebuilt := make([]FormattedPage, 0, len(pages))
	for _, page := range pages {
		newContent := normalizer.NormalizeRichText(page.Content, ParagraphSeparator)
		if newContent == "" {
			newContent = page.Content
		}

		slots := append([]int(nil), page.ImageSlots...)
		if len(slots) != len(page.ImageURLs) {
			slots = RemapSlotsProportional(page.ImageSlots, countBlocks(page.Content), countBlocks(newContent))
			slots = NormalizeSlots(len(page.ImageURLs), slots, countBlocks(newContent))
		}

		rebuilt = append(rebuilt, newFormattedPage(page.PageNumber, newContent, page.ImageURLs, slots))
	}
	return rebuilt
}

func newFormattedPage(pageNumber int, content string, urls []string, slots []int) FormattedPage {
	return FormattedPage{
		PageNumber:       pageNumber,
		Content:          content,
		CharCount:        utf8.RuneCountInString(content),
		EmojiCount:       CountEmoji(content),
		HasProperSpacing: strings.Contains(content, BrailleBlank),
		ImageURLs:        append([]string(nil), urls...),
		ImageSlots:       append([]int(nil), slots...),
	}
}

// RefineSystemPrompt 视觉反馈驱动的单页改写提示词。
const RefineSystemPrompt = `你是一个小红书排版优化师。根据视觉审查反馈改进页面内容。

要求：
- 保持原有信息完整，不增删事实
- 只调整排版、断句、emoji 和空行节奏
- 空行必须使用 ⠀ (U+2800 盲文空格)
- 若正文出现 <IMG_1>、<IMG_2>... 图片锚点，必须原样保留：
  每个锚点出现且只出现一次，顺序不变，单独成段
- 每页不超过 430 字

只输出改写后的纯文本内容，不要 JSON，不要解释。`

// RefinePage 按视觉反馈改写单页。图片锚点经 token 往返保护：
// 改写破坏锚点时退回改写前的 token 化文本，页面内容仍保持可用。
func (f *Formatter) RefinePage(ctx context.Context, page FormattedPage, feedback string) FormattedPage {
	if f.client == nil || strings.TrimSpace(feedback) == "" {
		return page
	}

	tokenized := InjectImageTokens(page.Content, page.ImageSlots, len(page.ImageURLs))

	result, err := f.client.ChatText(ctx, llm.TextRequest{
		SystemPrompt: RefineSystemPrompt,
		UserPrompt: fmt.Sprintf(`视觉审查反馈：
%s

当前页面内容：
%s`, feedback, tokenized),
		Temperature: 0.4,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Printf("[formatter] page %d refine failed: %v", page.PageNumber, err)
		return page
	}

	candidate := strings.TrimSpace(result.Content)
	if candidate == "" {
		return page
	}

	if len(page.ImageURLs) > 0 {
		tokens := ExtractImageTokens(candidate)
		if !ValidTokenSequence(tokens, len(page.ImageURLs)) {
			log.Printf("[formatter] page %d refine broke image tokens, fallback (got=%v)",
				page.PageNumber, tokens)
			candidate = tokenized
		}
	}

	newContent, semanticSlots := StripImageTokens(candidate, len(page.ImageURLs))
	if newContent == "" {
		return page
	}

	slots := semanticSlots
	if len(slots) != len(page.ImageURLs) {
		slots = RemapSlotsProportional(page.ImageSlots, countBlocks(page.Content), countBlocks(newContent))
	}

	return newFormattedPage(page.PageNumber, newContent, page.ImageURLs, slots)
}

func countBlocks(content string) int {
	count := len(strings.Split(content, ParagraphSeparator))
	if count < 1 {
		count = 1
	}
	return count
}
