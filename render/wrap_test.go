package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runeMeasure 每个字符记 1 个单位宽，便于验证换行逻辑本身。
func runeMeasure(text string) float64 {
	return float64(len([]rune(text)))
}

func TestWrapTextLatinWords(t *testing.T) {
	lines := WrapText("abcd efgh", 5, runeMeasure)
	require.Equal(t, []string{"abcd", "efgh"}, lines)
}

func TestWrapTextCJKPerRune(t *testing.T) {
	lines := WrapText("一二三四五六", 4, runeMeasure)
	require.Equal(t, []string{"一二三四", "五六"}, lines)
}

func TestWrapTextKeepsWordAtomic(t *testing.T) {
	// 拉丁词不被拆开：整词换到下一行
	lines := WrapText("前缀 golang", 7, runeMeasure)
	require.Equal(t, []string{"前缀", "golang"}, lines)
}

func TestWrapTextHardSplitOversizeToken(t *testing.T) {
	lines := WrapText("abcdefghij", 4, runeMeasure)
	require.Equal(t, []string{"abcd", "efgh", "ij"}, lines)
}

func TestWrapTextBlankParagraphMarker(t *testing.T) {
	lines := WrapText("第一段\n⠀\n第二段", 10, runeMeasure)
	require.Equal(t, []string{"第一段", "", "第二段"}, lines)

	require.True(t, IsBlankLine(""))
	require.True(t, IsBlankLine("⠀"))
	require.False(t, IsBlankLine("字"))
}

func TestWrapTextWidthProperty(t *testing.T) {
	text := "混合 mixed 文本 with URLs https://example.com/path 和表情 🎉 以及很长的英文单词 internationalization"
	for _, width := range []float64{4, 8, 16, 32} {
		for _, line := range WrapText(text, width, runeMeasure) {
			require.LessOrEqual(t, runeMeasure(line), width, "width=%v line=%q", width, line)
		}
	}
}

func TestWrapTextDropsLeadingSpaces(t *testing.T) {
	lines := WrapText("word1 word2 word3", 6, runeMeasure)
	for _, line := range lines {
		require.False(t, strings.HasPrefix(line, " "), "line %q starts with space", line)
		require.False(t, strings.HasSuffix(line, " "), "line %q ends with space", line)
	}
}
