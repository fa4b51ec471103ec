package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxCodeLines     = 8
	maxCodeLineChars = 92
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```([\\w+-]*)\n(.*?)```")
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldAstRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__([^_]+)__`)
	italicAstRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUndRe  = regexp.MustCompile(`_([^_\n]+)_`)
	strikeRe     = regexp.MustCompile(`~~([^~]+)~~`)
	headingRe    = regexp.MustCompile(`^\s*#{1,6}\s+`)
	quoteRe      = regexp.MustCompile(`^\s*>+\s*`)
	ulRe         = regexp.MustCompile(`^\s*[-*+]\s+`)
	olRe         = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	wsRunRe      = regexp.MustCompile(`[ \t]+`)
	bracketTagRe = regexp.MustCompile(`\[([A-Z][A-Z0-9 _:-]{2,})\]`)
)

// Normalizer 把 markdown 风味文本清洗为可直接渲染的卡片纯文本，
// 是 formatter / renderer 共享的中间层。
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// NormalizeInline 清洗一行内的行内语法（加粗、链接、行内代码等）。
func (n *Normalizer) NormalizeInline(text string) string {
	if text == "" {
		return ""
	}

	out := imageRe.ReplaceAllStringFunc(text, func(m string) string {
		alt := strings.TrimSpace(imageRe.FindStringSubmatch(m)[1])
		if alt == "" {
			return "配图"
		}
		return alt
	})
	out = linkRe.ReplaceAllString(out, "$1")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = boldAstRe.ReplaceAllString(out, "$1")
	out = boldUnderRe.ReplaceAllString(out, "$1")
	out = italicAstRe.ReplaceAllString(out, "$1")
	out = italicUndRe.ReplaceAllString(out, "$1")
	out = strikeRe.ReplaceAllString(out, "$1")
	out = bracketTagRe.ReplaceAllString(out, "$1")
	out = wsRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// NormalizeLine 清洗一行（块级前缀 + 行内语法）。
func (n *Normalizer) NormalizeLine(line string) string {
	stripped := strings.TrimRight(line, " \t\r")
	if stripped == "" {
		return ""
	}

	normalized := headingRe.ReplaceAllString(stripped, "")
	normalized = quoteRe.ReplaceAllString(normalized, "")

	if ulRe.MatchString(normalized) {
		normalized = ulRe.ReplaceAllString(normalized, "· ")
	} else if olRe.MatchString(normalized) {
		normalized = olRe.ReplaceAllString(normalized, "· ")
	}

	return n.NormalizeInline(normalized)
}

// NormalizeMultiline 逐行清洗多行文本并压缩连续空行。
func (n *Normalizer) NormalizeMultiline(text string) string {
	if text == "" {
		return ""
	}

	var out []string
	prevBlank := false

	for _, raw := range strings.Split(text, "\n") {
		normalized := n.NormalizeLine(raw)
		if normalized == "" {
			if !prevBlank && len(out) > 0 {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		out = append(out, normalized)
		prevBlank = false
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}

// CompactCodeBlock 压缩超长代码块为可读摘录，避免卡片可读性崩溃。
func (n *Normalizer) CompactCodeBlock(code, language string) string {
	var lines []string
	for _, raw := range strings.Split(code, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return "代码片段："
	}

	clipped := make([]string, len(lines))
	for i, line := range lines {
		clipped[i] = clipCodeLine(line)
	}

	truncated := len(clipped) > maxCodeLines
	selected := clipped
	if truncated {
		headCount := maxCodeLines - 3
		if headCount < 3 {
			headCount = 3
		}
		selected = append(append(clipped[:headCount:headCount], "..."), clipped[len(clipped)-2:]...)
	}

	label := "代码片段："
	if language != "" {
		label = fmt.Sprintf("代码片段（%s）：", language)
	}

	parts := append([]string{label}, selected...)
	if truncated {
		parts = append(parts, "（代码较长，已截取关键片段）")
	}
	return strings.Join(parts, "\n")
}

// NormalizeRichText 清洗整页文本（含围栏代码块），保持块分隔符稳定。
func (n *Normalizer) NormalizeRichText(text, blockSeparator string) string {
	if text == "" {
		return ""
	}

	normalized := codeFenceRe.ReplaceAllStringFunc(text, func(m string) string {
		groups := codeFenceRe.FindStringSubmatch(m)
		return n.CompactCodeBlock(groups[2], strings.TrimSpace(groups[1]))
	})

	var cleanBlocks []string
	for _, block := range strings.Split(normalized, blockSeparator) {
		if clean := n.NormalizeMultiline(block); clean != "" {
			cleanBlocks = append(cleanBlocks, clean)
		}
	}
	return strings.Join(cleanBlocks, blockSeparator)
}

func clipCodeLine(line string) string {
	if utf8.RuneCountInString(line) <= maxCodeLineChars {
		return line
	}
	runes := []rune(line)
	return strings.TrimRight(string(runes[:maxCodeLineChars-1]), " \t") + "…"
}
