// Package card 小红书卡片领域核心：锚点槽位、图片 token、流式排版与分页格式化。
//
// 核心约定：空行使用盲文空格 U+2800（小红书会吞掉普通空行），
// 段落之间用 "\n⠀\n" 分隔。
package card

// BrailleBlank 盲文空格，小红书不会吞掉的空白字符。
const BrailleBlank = "⠀" // U+2800

// ParagraphSeparator 段落分隔模板。
const ParagraphSeparator = "\n" + BrailleBlank + "\n"

// QuoteMark 引用行前缀。
const QuoteMark = "｜"

// ListMarker 列表项标记。
const ListMarker = "·"

// CountEmoji 统计常用 emoji 码位（U+1F300–U+1F9FF）出现次数。
func CountEmoji(s string) int {
	count := 0
	for _, r := range s {
		if r >= 0x1F300 && r <= 0x1F9FF {
			count++
		}
	}
	return count
}
