package render

import (
	"strings"
	"unicode"

	"rednote_card_maker/card"
)

// MeasureFunc 返回一段文本的显示宽度（与 maxWidth 同单位）。
type MeasureFunc func(text string) float64

// WrapText 逐段落做词/字安全的贪心换行。
//
// 分词规则：拉丁词（字母数字及少量符号的连续串）作为原子单元不被拆开；
// 其余字符（CJK、emoji、符号）逐字符成 token，可在任意边界换行。
// 单个 token 超宽时按字符硬切成若干满宽片段。
// 纯空白段落（含盲文空格占位）产出一条显式空行，保留刻意的空行间距。
func WrapText(text string, maxWidth float64, measure MeasureFunc) []string {
	var lines []string

	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimRight(paragraph, card.BrailleBlank)
		paragraph = strings.TrimRight(paragraph, " \t\r")
		if isBlankParagraph(paragraph) {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, token := range tokenizeForWrap(paragraph) {
			if isSpaceToken(token) {
				if current == "" {
					continue
				}
				current = appendWrappedToken(&lines, current, " ", maxWidth, measure)
				continue
			}
			current = appendWrappedToken(&lines, current, token, maxWidth, measure)
		}

		if current != "" {
			lines = append(lines, strings.TrimRight(current, " "))
		}
	}

	return lines
}

func appendWrappedToken(lines *[]string, current, token string, maxWidth float64, measure MeasureFunc) string {
	test := current + token
	if measure(test) <= maxWidth {
		return test
	}

	if strings.TrimSpace(current) != "" {
		*lines = append(*lines, strings.TrimRight(current, " "))
	}

	if isSpaceToken(token) {
		return ""
	}

	if measure(token) <= maxWidth {
		return token
	}

	// 单 token 超宽：按字符硬切
	chunk := ""
	for _, r := range token {
		test := chunk + string(r)
		if chunk == "" || measure(test) <= maxWidth {
			chunk = test
			continue
		}
		*lines = append(*lines, strings.TrimRight(chunk, " "))
		chunk = string(r)
	}
	return chunk
}

// tokenizeForWrap 等价于 `\s+|[A-Za-z0-9][A-Za-z0-9_./:+#@-]*|.` 的分词。
func tokenizeForWrap(paragraph string) []string {
	var tokens []string
	runes := []rune(paragraph)

	for i := 0; i < len(runes); {
		r := runes[i]

		if unicode.IsSpace(r) {
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
			continue
		}

		if isWordStart(r) {
			j := i + 1
			for j < len(runes) && isWordContinue(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
			continue
		}

		tokens = append(tokens, string(r))
		i++
	}

	return tokens
}

func isWordStart(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isWordContinue(r rune) bool {
	if isWordStart(r) {
		return true
	}
	switch r {
	case '_', '.', '/', ':', '+', '#', '@', '-':
		return true
	}
	return false
}

func isSpaceToken(token string) bool {
	return strings.TrimSpace(token) == ""
}

func isBlankParagraph(paragraph string) bool {
	trimmed := strings.TrimSpace(paragraph)
	return trimmed == "" || trimmed == card.BrailleBlank
}

// IsBlankLine 渲染时判断一行是否为空行占位。
func IsBlankLine(line string) bool {
	return isBlankParagraph(line)
}
