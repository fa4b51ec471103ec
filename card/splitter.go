package card

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"rednote_card_maker/llm"
	"rednote_card_maker/markdown"
)

// 字数限制（小红书风格：短平快）
const (
	IdealPageChars = 280 // 理想字数：一屏能看完
	MaxPageChars   = 450
	MinPageChars   = 120
)

// SplitSystemPrompt 分页方案提示词。
const SplitSystemPrompt = `你是小红书内容分割专家。把长文拆成多个短页，每页 250-400 字。

分割原则：
1. 一屏能看完！不要堆太多字
2. 标题跟着内容走，别单独一页
3. 短代码块（< 400字）保持完整；超长代码块直接跳过不放进任何页面
4. 列表别拆开

返回JSON：
{
    "pages": [
        {"block_indices": [0, 1], "image_indices": [0], "estimated_chars": 280}
    ],
    "reasoning": "简短理由"
}`

// Splitter 智能内容分割器：LLM 给分页方案，校验不过就回退规则分割。
type Splitter struct {
	client llm.Client
}

func NewSplitter(client llm.Client) *Splitter {
	return &Splitter{client: client}
}

func estimateBlockChars(block markdown.ContentBlock) int {
	switch block.Type {
	case markdown.BlockImage:
		return 0
	case markdown.BlockList:
		total := 0
		for _, item := range block.Items {
			total += utf8.RuneCountInString(item)
		}
		return total
	default:
		return utf8.RuneCountInString(block.Content)
	}
}

// collectImagesForBlocks 按 markdown 中图片块的出现顺序收集该页图片。
func collectImagesForBlocks(blocks []markdown.ContentBlock, analyses []ImageAnalysis) []ImageAnalysis {
	if len(analyses) == 0 {
		return nil
	}

	byPath := make(map[string]ImageAnalysis, len(analyses))
	for _, img := range analyses {
		byPath[img.Path] = img
	}

	var images []ImageAnalysis
	seen := map[string]bool{}
	for _, block := range blocks {
		if block.Type != markdown.BlockImage || block.Image == nil {
			continue
		}
		path := block.Image.Path
		if seen[path] {
			continue
		}
		analysis, ok := byPath[path]
		if !ok {
			continue
		}
		images = append(images, analysis)
		seen[path] = true
	}
	return images
}

// Split 分割内容为多页。短文（≤ MaxPageChars）不分页。
func (s *Splitter) Split(ctx context.Context, doc markdown.Document, analyses []ImageAnalysis, useLLM bool) []PageContent {
	totalChars := 0
	for _, block := range doc.Blocks {
		totalChars += estimateBlockChars(block)
	}

	if totalChars <= MaxPageChars {
		return []PageContent{{
			PageNumber: 1,
			Blocks:     doc.Blocks,
			Images:     collectImagesForBlocks(doc.Blocks, analyses),
			CharCount:  totalChars,
			IsCover:    true,
		}}
	}

	if !useLLM || s.client == nil {
		return s.simpleSplit(doc, analyses)
	}

	pages, err := s.llmSplit(ctx, doc, analyses)
	if err != nil {
		log.Printf("[splitter] LLM split failed, using simple split: %v", err)
		return s.simpleSplit(doc, analyses)
	}
	if !isSplitPlanReasonable(pages, totalChars) {
		log.Printf("[splitter] LLM split plan rejected, using simple split")
		return s.simpleSplit(doc, analyses)
	}
	return pages
}

// simpleSplit 按字数预算顺序装箱的回退分割。
func (s *Splitter) simpleSplit(doc markdown.Document, analyses []ImageAnalysis) []PageContent {
	var pages []PageContent
	var currentBlocks []markdown.ContentBlock
	currentChars := 0
	pageNum := 1

	flush := func() {
		if len(currentBlocks) == 0 {
			return
		}
		pages = append(pages, PageContent{
			PageNumber: pageNum,
			Blocks:     currentBlocks,
			Images:     collectImagesForBlocks(currentBlocks, analyses),
			CharCount:  currentChars,
			IsCover:    pageNum == 1,
		})
		pageNum++
		currentBlocks = nil
		currentChars = 0
	}

	for _, block := range doc.Blocks {
		blockChars := estimateBlockChars(block)
		if currentChars+blockChars > MaxPageChars && len(currentBlocks) > 0 {
			flush()
		}
		currentBlocks = append(currentBlocks, block)
		currentChars += blockChars
	}
	flush()

	return pages
}

func (s *Splitter) llmSplit(ctx context.Context, doc markdown.Document, analyses []ImageAnalysis) ([]PageContent, error) {
	summary := buildContentSummary(doc, analyses)

	result, err := s.client.ChatText(ctx, llm.TextRequest{
		SystemPrompt: SplitSystemPrompt,
		UserPrompt:   "请分析以下内容并给出分页方案：\n\n" + summary,
		Temperature:  0.3,
		MaxTokens:    1000,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	plan, err := llm.ParseJSON(result.Content)
	if err != nil {
		return nil, err
	}

	// 方案清洗：越界/重复索引丢弃，漏掉的块补到最后一页
	usedIndices := map[int]bool{}
	var normalizedPages [][]int

	for _, pagePlan := range plan.Get("pages").Array() {
		var indices []int
		for _, raw := range pagePlan.Get("block_indices").Array() {
			idx, ok := planIndex(raw)
			if !ok || idx < 0 || idx >= len(doc.Blocks) || usedIndices[idx] {
				continue
			}
			indices = append(indices, idx)
			usedIndices[idx] = true
		}
		if len(indices) > 0 {
			sort.Ints(indices)
			normalizedPages = append(normalizedPages, indices)
		}
	}

	var missing []int
	for idx := range doc.Blocks {
		if !usedIndices[idx] {
			missing = append(missing, idx)
		}
	}
	if len(missing) > 0 {
		if len(normalizedPages) > 0 {
			last := len(normalizedPages) - 1
			normalizedPages[last] = append(normalizedPages[last], missing...)
		} else {
			normalizedPages = append(normalizedPages, missing)
		}
	}

	if len(normalizedPages) == 0 {
		return nil, fmt.Errorf("empty split plan")
	}

	pages := make([]PageContent, 0, len(normalizedPages))
	for i, blockIndices := range normalizedPages {
		pageBlocks := make([]markdown.ContentBlock, 0, len(blockIndices))
		charCount := 0
		for _, idx := range blockIndices {
			pageBlocks = append(pageBlocks, doc.Blocks[idx])
			charCount += estimateBlockChars(doc.Blocks[idx])
		}
		pages = append(pages, PageContent{
			PageNumber: i + 1,
			Blocks:     pageBlocks,
			Images:     collectImagesForBlocks(pageBlocks, analyses),
			CharCount:  charCount,
			IsCover:    i == 0,
		})
	}

	log.Printf("[splitter] LLM split into %d pages: %s", len(pages), plan.Get("reasoning").String())
	return pages, nil
}

// isSplitPlanReasonable 分页方案的基本质量闸门。
func isSplitPlanReasonable(pages []PageContent, totalChars int) bool {
	if len(pages) == 0 {
		return false
	}
	// 长内容不允许塌缩成单页
	if totalChars > MaxPageChars && len(pages) < 2 {
		return false
	}
	for _, page := range pages {
		if page.CharCount > MaxPageChars*16/10 {
			return false
		}
	}
	return true
}

func buildContentSummary(doc markdown.Document, analyses []ImageAnalysis) string {
	var sb strings.Builder
	sb.WriteString("内容块列表：\n")

	for i, block := range doc.Blocks {
		chars := estimateBlockChars(block)
		switch block.Type {
		case markdown.BlockHeading:
			sb.WriteString(fmt.Sprintf("[%d] 标题(H%d): %s (%d字)\n", i, block.Level, clipRunes(block.Content, 50), chars))
		case markdown.BlockParagraph:
			sb.WriteString(fmt.Sprintf("[%d] 段落: %s (%d字)\n", i, clipRunes(block.Content, 100), chars))
		case markdown.BlockList:
			sb.WriteString(fmt.Sprintf("[%d] 列表(%d项): %d字\n", i, len(block.Items), chars))
		case markdown.BlockQuote:
			sb.WriteString(fmt.Sprintf("[%d] 引用: %s (%d字)\n", i, clipRunes(block.Content, 50), chars))
		case markdown.BlockCode:
			sb.WriteString(fmt.Sprintf("[%d] 代码块: %d字\n", i, chars))
		case markdown.BlockImage:
			sb.WriteString(fmt.Sprintf("[%d] 图片引用\n", i))
		case markdown.BlockRule:
			sb.WriteString(fmt.Sprintf("[%d] 分隔线\n", i))
		}
	}

	sb.WriteString("\n图片分析结果：\n")
	for i, img := range analyses {
		sb.WriteString(fmt.Sprintf("[%d] %s (建议位置: %s, 情感: %s)\n",
			i, img.Description, img.SuggestedPosition, img.Mood))
	}

	totalChars := 0
	for _, block := range doc.Blocks {
		totalChars += estimateBlockChars(block)
	}
	sb.WriteString(fmt.Sprintf("\n总字数: %d", totalChars))

	return sb.String()
}

// planIndex 接受整数或纯数字字符串形式的块索引。
func planIndex(raw gjson.Result) (int, bool) {
	switch raw.Type {
	case gjson.Number:
		return int(raw.Int()), true
	case gjson.String:
		trimmed := strings.TrimSpace(raw.String())
		if trimmed == "" {
			return 0, false
		}
		idx, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, false
		}
		return idx, true
	default:
		return 0, false
	}
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
