package card

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rednote_card_maker/markdown"
)

// ImageTokenRe 行内图片锚点 <IMG_n>。
var ImageTokenRe = regexp.MustCompile(`<IMG_(\d+)>`)

var standaloneTokenRe = regexp.MustCompile(`(?m)^[ \t]*(<IMG_\d+>)[ \t]*$`)

var separatorRunRe = regexp.MustCompile("(?:" + regexp.QuoteMeta(ParagraphSeparator) + "){2,}")

// 块边缘的修剪集合：普通空白加盲文空格。U+2800 不是 Unicode 空白，
// strings.TrimSpace 不会剥掉它，但在块边缘它只是分隔符残留。
const blockTrimCutset = " \t\r\n" + BrailleBlank

var normalizer = markdown.NewNormalizer()

// InjectImageTokens 按当前槽位把 <IMG_n> 锚点注入正文，
// 每个锚点独立成块，交给外部改写器时随文本一起传递。
func InjectImageTokens(content string, slots []int, imageCount int) string {
	if imageCount <= 0 {
		return content
	}

	blocks := splitBlocks(content)
	blockCount := len(blocks)
	normalized := NormalizeSlots(imageCount, slots, blockCount)

	output := make([]string, 0, blockCount+imageCount)
	imageIdx := 0
	for blockIdx := 0; blockIdx <= blockCount; blockIdx++ {
		for imageIdx < imageCount && normalized[imageIdx] == blockIdx {
			output = append(output, fmt.Sprintf("<IMG_%d>", imageIdx+1))
			imageIdx++
		}
		if blockIdx < blockCount {
			output = append(output, blocks[blockIdx])
		}
	}
	for imageIdx < imageCount {
		output = append(output, fmt.Sprintf("<IMG_%d>", imageIdx+1))
		imageIdx++
	}

	return strings.Join(output, ParagraphSeparator)
}

// ExtractImageTokens 按首次出现顺序提取锚点编号。
func ExtractImageTokens(text string) []int {
	if text == "" {
		return nil
	}
	var ids []int
	for _, match := range ImageTokenRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ValidTokenSequence 校验提取序列恰为 [1..imageCount]：不丢、不重、不乱序。
func ValidTokenSequence(ids []int, imageCount int) bool {
	if len(ids) != imageCount {
		return false
	}
	for i, id := range ids {
		if id != i+1 {
			return false
		}
	}
	return true
}

// StripImageTokens 把改写后文本里的 <IMG_n> 解析回槽位并从可见文本中剥离。
// 返回规整后的纯文本内容与新的槽位序列。
func StripImageTokens(content string, imageCount int) (string, []int) {
	if imageCount <= 0 {
		return normalizer.NormalizeRichText(content, ParagraphSeparator), nil
	}

	prepared := prepareTextForTokenParse(content)
	blocks := splitBlocks(prepared)

	tokenPositions := map[int]int{}
	var textBlocks []string

	for _, block := range blocks {
		matches := ImageTokenRe.FindAllStringSubmatchIndex(block, -1)
		if len(matches) == 0 {
			textBlocks = append(textBlocks, block)
			continue
		}

		cursor := 0
		for _, m := range matches {
			prefix := strings.Trim(block[cursor:m[0]], blockTrimCutset)
			if prefix != "" {
				textBlocks = append(textBlocks, prefix)
			}

			id, err := strconv.Atoi(block[m[2]:m[3]])
			if err == nil && id >= 1 && id <= imageCount {
				if _, seen := tokenPositions[id]; !seen {
					tokenPositions[id] = len(textBlocks)
				}
			}
			cursor = m[1]
		}
		if suffix := strings.Trim(block[cursor:], blockTrimCutset); suffix != "" {
			textBlocks = append(textBlocks, suffix)
		}
	}

	fallbackSlot := len(textBlocks)
	slots := make([]int, 0, imageCount)
	prev := 0
	for id := 1; id <= imageCount; id++ {
		slot, ok := tokenPositions[id]
		if !ok {
			slot = fallbackSlot
		}
		if slot < 0 {
			slot = 0
		}
		if slot > fallbackSlot {
			slot = fallbackSlot
		}
		if slot < prev {
			slot = prev
		}
		slots = append(slots, slot)
		prev = slot
	}

	textOnly := strings.Join(textBlocks, ParagraphSeparator)
	normalized := normalizer.NormalizeRichText(textOnly, ParagraphSeparator)
	if normalized == "" {
		normalized = normalizer.NormalizeRichText(content, ParagraphSeparator)
	}
	return normalized, slots
}

// prepareTextForTokenParse 把独立成行的锚点规整为块分隔，便于稳定解析。
func prepareTextForTokenParse(text string) string {
	if text == "" {
		return ""
	}
	prepared := standaloneTokenRe.ReplaceAllString(text, ParagraphSeparator+"$1"+ParagraphSeparator)
	return separatorRunRe.ReplaceAllString(prepared, ParagraphSeparator)
}

func splitBlocks(content string) []string {
	var blocks []string
	for _, part := range strings.Split(content, ParagraphSeparator) {
		if trimmed := strings.Trim(part, blockTrimCutset); trimmed != "" {
			blocks = append(blocks, trimmed)
		}
	}
	return blocks
}
