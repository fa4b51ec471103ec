package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeInline(t *testing.T) {
	n := NewNormalizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "这是**重点**内容", "这是重点内容"},
		{"bold underscore", "__加粗__文字", "加粗文字"},
		{"italic", "带*斜体*的句子", "带斜体的句子"},
		{"strike", "~~删掉~~保留", "删掉保留"},
		{"link", "看[这篇文章](https://example.com)就懂", "看这篇文章就懂"},
		{"inline code", "运行 `go run main.go` 即可", "运行 go run main.go 即可"},
		{"image with alt", "![截图](a.png)", "截图"},
		{"image without alt", "![](a.png)", "配图"},
		{"bracket tag", "[NOTE] 提示内容", "NOTE 提示内容"},
		{"wide whitespace", "a    b\tc", "a b c"},
		{"single tab", "a b\tc", "a b c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, n.NormalizeInline(tc.in))
		})
	}
}

func TestNormalizeLine(t *testing.T) {
	n := NewNormalizer()

	require.Equal(t, "三级标题", n.NormalizeLine("### 三级标题"))
	require.Equal(t, "引用句", n.NormalizeLine("> 引用句"))
	require.Equal(t, "· 列表项", n.NormalizeLine("- 列表项"))
	require.Equal(t, "· 有序项", n.NormalizeLine("2. 有序项"))
	require.Equal(t, "", n.NormalizeLine("   "))
}

func TestNormalizeMultilineCollapsesBlanks(t *testing.T) {
	n := NewNormalizer()

	got := n.NormalizeMultiline("第一行\n\n\n\n第二行\n\n")
	require.Equal(t, "第一行\n\n第二行", got)
}

func TestCompactCodeBlockShort(t *testing.T) {
	n := NewNormalizer()

	got := n.CompactCodeBlock("a := 1\nb := 2", "go")
	require.Equal(t, "代码片段（go）：\na := 1\nb := 2", got)
}

func TestCompactCodeBlockTruncates(t *testing.T) {
	n := NewNormalizer()

	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "line")
	}
	got := n.CompactCodeBlock(strings.Join(lines, "\n"), "")

	require.True(t, strings.HasPrefix(got, "代码片段："))
	require.Contains(t, got, "...")
	require.Contains(t, got, "（代码较长，已截取关键片段）")
	// 摘录 = 头 5 行 + ... + 尾 2 行
	require.Len(t, strings.Split(got, "\n"), 10)
}

func TestCompactCodeBlockClipsLongLines(t *testing.T) {
	n := NewNormalizer()

	long := strings.Repeat("x", 200)
	got := n.CompactCodeBlock(long, "")
	for _, line := range strings.Split(got, "\n")[1:] {
		require.LessOrEqual(t, len([]rune(line)), maxCodeLineChars)
	}
	require.Contains(t, got, "…")
}

func TestNormalizeRichTextFencedCode(t *testing.T) {
	n := NewNormalizer()
	sep := "\n⠀\n"

	in := "介绍" + sep + "```python\nprint(1)\n```" + sep + "结尾"
	got := n.NormalizeRichText(in, sep)

	blocks := strings.Split(got, sep)
	require.Len(t, blocks, 3)
	require.Equal(t, "代码片段（python）：\nprint(1)", blocks[1])
}

func TestNormalizeRichTextDropsEmptyBlocks(t *testing.T) {
	n := NewNormalizer()
	sep := "\n⠀\n"

	in := "内容" + sep + "   " + sep + "更多"
	got := n.NormalizeRichText(in, sep)
	require.Equal(t, "内容"+sep+"更多", got)
}
