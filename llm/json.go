package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSON 尽力从模型输出里解析 JSON：依次尝试原文、去掉代码围栏、
// 扫描第一个配平的对象/数组。失败时返回错误，调用方自行兜底。
func ParseJSON(content string) (gjson.Result, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return gjson.Result{}, fmt.Errorf("empty JSON content")
	}

	stripped := StripCodeFence(raw)
	candidates := []string{raw, stripped}
	if block := extractFirstJSONBlock(raw); block != "" {
		candidates = append(candidates, block)
	}
	if block := extractFirstJSONBlock(stripped); block != "" {
		candidates = append(candidates, block)
	}

	seen := map[string]bool{}
	for _, candidate := range candidates {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		if gjson.Valid(candidate) {
			return gjson.Parse(candidate), nil
		}
	}

	preview := strings.ReplaceAll(raw, "\n", " ")
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return gjson.Result{}, fmt.Errorf("failed to parse JSON from LLM response: %s", preview)
}

// StripCodeFence 去掉最外层的 markdown 代码围栏。
func StripCodeFence(text string) string {
	value := strings.TrimSpace(text)
	if !strings.HasPrefix(value, "```") {
		return value
	}
	lines := strings.Split(value, "\n")
	if len(lines) >= 2 && strings.HasPrefix(lines[0], "```") && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return value
}

func extractFirstJSONBlock(text string) string {
	if block := scanBalanced(text, '{', '}'); block != "" {
		return block
	}
	return scanBalanced(text, '[', ']')
}

// scanBalanced 找到第一个配平的 open/close 区段，跳过字符串字面量。
func scanBalanced(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	for start != -1 {
		depth := 0
		inString := false
		escaped := false

		for i := start; i < len(text); i++ {
			ch := text[i]

			if inString {
				if escaped {
					escaped = false
					continue
				}
				switch ch {
				case '\\':
					escaped = true
				case '"':
					inString = false
				}
				continue
			}

			switch ch {
			case '"':
				inString = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}

		next := strings.IndexByte(text[start+1:], open)
		if next == -1 {
			return ""
		}
		start = start + 1 + next
	}
	return ""
}
